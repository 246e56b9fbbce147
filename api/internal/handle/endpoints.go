package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medassist/api/internal/assistant"
	"medassist/api/internal/i18n"
	"medassist/api/internal/ocr"
	"medassist/api/internal/speech"
	"medassist/api/internal/util"
)

type ChatRequest struct {
	Message  string `json:"message" binding:"required"`
	Language string `json:"language"`
}

type SummarizeRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

// ExtractTextRequest is the JSON alternative to a multipart upload.
// Image is base64, optionally as a data: URI.
type ExtractTextRequest struct {
	Image    string `json:"image" binding:"required"`
	Filename string `json:"filename"`
}

type OCRResponse struct {
	ocr.Result
	FormattedReport string `json:"formatted_report"`
}

func (h *Handle) Root(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"message":             "🏥 Doctor Assistant API is running!",
		"status":              "healthy",
		"version":             Version,
		"supported_languages": i18n.Codes(),
	})
}

func (h *Handle) Health(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"status":              "healthy",
		"message":             "🏥 Doctor Assistant API",
		"supported_languages": i18n.Names(),
		"features": gin.H{
			"🤖 Medical AI":      "Gemini-powered medical analysis",
			"🔎 Medical Search":  "Google Custom Search",
			"🔍 OCR":             "Tesseract with preprocessing",
			"📝 Summarization":   "AI-powered medical summaries",
			"🎤 Speech":          "Gemini transcription",
			"🌐 Multi-language":  "Support for 12 languages",
		},
	})
}

func (h *Handle) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handle) Chatbot(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	ctx, cancel := h.deadline(c)
	defer cancel()

	writeJSON(c, http.StatusOK, h.deps.Chatbot.Respond(ctx, req.Message, req.Language))
}

func (h *Handle) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	ctx, cancel := h.deadline(c)
	defer cancel()

	writeJSON(c, http.StatusOK, gin.H{"summary": h.deps.Summarizer.Summarize(ctx, req.Text, req.Language)})
}

func (h *Handle) Transcribe(c *gin.Context) {
	audio, name, ok, err := readUpload(c, "file")
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(c, http.StatusBadRequest, "No file provided")
		return
	}
	if len(audio) > 0 && !util.IsAudio(audio) {
		writeError(c, http.StatusUnsupportedMediaType, "unsupported audio type: "+util.SniffMime(audio))
		return
	}
	ctx, cancel := h.deadline(c)
	defer cancel()

	tr, err := h.deps.Transcriber.Transcribe(ctx, audio, name)
	if errors.Is(err, speech.ErrEmptyAudio) {
		writeError(c, http.StatusBadRequest, "Transcription error: "+speech.MsgEmptyAudio)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Transcription error: "+err.Error())
		return
	}
	writeJSON(c, http.StatusOK, tr)
}

func (h *Handle) ExtractText(c *gin.Context) {
	var src ocr.ByteStream
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req ExtractTextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		b, _, err := util.DecodeBase64MaybeDataURL(req.Image)
		if err != nil || len(b) == 0 {
			writeError(c, http.StatusBadRequest, "bad image base64")
			return
		}
		src = ocr.ByteStream{Data: b, Filename: req.Filename}
	} else {
		b, name, ok, err := readUpload(c, "image")
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			writeError(c, http.StatusBadRequest, "No image provided")
			return
		}
		src = ocr.ByteStream{Data: b, Filename: name}
	}
	if !util.IsImage(src.Data) {
		writeError(c, http.StatusUnsupportedMediaType, "unsupported image type: "+util.SniffMime(src.Data))
		return
	}

	ctx, cancel := h.deadline(c)
	defer cancel()

	res := h.deps.Extractor.Extract(ctx, src)
	writeJSON(c, http.StatusOK, OCRResponse{Result: res, FormattedReport: ocr.FormatReport(res)})
}

func (h *Handle) FullWorkflow(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUpload); err != nil {
		writeError(c, http.StatusBadRequest, "Unable to parse multipart form")
		return
	}
	in := assistant.Input{
		Language:  c.DefaultPostForm("language", i18n.Default),
		RequestID: requestID(c),
	}

	audio, name, ok, err := readUpload(c, "file")
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if ok {
		in.Audio, in.AudioName = audio, name
	}

	img, imgName, ok, err := readUpload(c, "image")
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if ok {
		in.Image = ocr.ByteStream{Data: img, Filename: imgName}
	}

	ctx, cancel := h.deadline(c)
	defer cancel()

	h.log.Info("full workflow", "request_id", in.RequestID, "audio", name, "image", imgName, "language", in.Language)
	writeJSON(c, http.StatusOK, h.deps.Workflow.Run(ctx, in))
}
