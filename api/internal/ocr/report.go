package ocr

import (
	"fmt"
	"strings"
)

const reportHeader = "## 📋 Medical Report Analysis"

const failedReport = reportHeader + `

❌ **OCR Failed**
- No readable text found
- Try uploading clearer image
- Ensure good lighting and contrast`

const reportTemplate = reportHeader + `

%s **OCR Quality: %.1f%%** *(using %s)*

### 📄 Extracted Text:
%s

### 🔍 Key Information to Review:
- **Patient Information**
- **Test Results & Values**
- **Clinical Findings**
- **Medications & Dosages**
- **Important Dates**
- **Doctor's Recommendations**

---
*🤖 Processed using advanced OCR*`

// QualityIndicator maps a confidence to the traffic-light marker shown in reports.
func QualityIndicator(confidence float64) string {
	switch {
	case confidence > 70:
		return "🟢"
	case confidence > 40:
		return "🟡"
	default:
		return "🔴"
	}
}

// FormatReport renders r as a markdown block for display.
func FormatReport(r Result) string {
	if r.Text == "" || strings.Contains(r.Text, "Unable to extract text") {
		return failedReport
	}
	return fmt.Sprintf(reportTemplate, QualityIndicator(r.Confidence), r.Confidence, r.Source, r.Text)
}
