package extraction

import "strings"

// ParsedResume is the best-effort structural breakdown of a Japanese
// resume. Lines are bucketed by the section heading most recently seen.
type ParsedResume struct {
	PersonalInfo   map[string]string `json:"personal_info"`
	Education      []string          `json:"education"`
	WorkHistory    []string          `json:"work_history"`
	Qualifications []string          `json:"qualifications"`
}

// ParseResumeStructure walks the extracted text line by line and
// assigns each line to the current section. Lines before the first
// recognized heading are dropped.
func ParseResumeStructure(text string) ParsedResume {
	parsed := ParsedResume{
		PersonalInfo:   map[string]string{},
		Education:      []string{},
		WorkHistory:    []string{},
		Qualifications: []string{},
	}

	var current *[]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.Contains(line, "学歴"):
			current = &parsed.Education
		case strings.Contains(line, "職歴"):
			current = &parsed.WorkHistory
		case strings.Contains(line, "資格") || strings.Contains(line, "免許"):
			current = &parsed.Qualifications
		case current != nil:
			*current = append(*current, line)
		}
	}
	return parsed
}
