package extraction

import (
	"strings"

	"github.com/careerpath/careerpath-backend/internal/document/domain"
)

// Keyword sets for the Japanese document categories. Checked in order,
// first match wins.
var (
	resumeIndicators = []string{"履歴書", "氏名", "生年月日", "住所", "学歴", "職歴"}
	cvIndicators     = []string{"職務経歴書", "職務経歴", "業務内容", "プロジェクト", "実績", "スキル"}
	// Compared against lowercased text.
	skillSheetIndicators = []string{"スキルシート", "skill sheet", "技術スタック", "開発経験"}
)

// ClassifyDocument detects the document category from its text and,
// as a secondary signal, its filename.
func ClassifyDocument(text, filename string) domain.DocumentType {
	textLower := strings.ToLower(text)
	filenameLower := strings.ToLower(filename)

	if containsAny(text, resumeIndicators) || strings.Contains(filenameLower, "履歴書") {
		return domain.DocumentTypeResume
	}
	if containsAny(text, cvIndicators) || strings.Contains(filenameLower, "職務経歴") {
		return domain.DocumentTypeCV
	}
	if containsAny(textLower, skillSheetIndicators) {
		return domain.DocumentTypeSkillSheet
	}
	return domain.DocumentTypeOther
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
