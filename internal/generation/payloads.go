package generation

// CurriculumDraft is the payload of a KindCurriculum response.
type CurriculumDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     []string `json:"content"`
}

// ItemDraft is one generated module or lesson.
type ItemDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     []string `json:"content"`
}

// ItemsPayload is the payload of KindModule and KindLesson responses.
type ItemsPayload struct {
	Items []ItemDraft `json:"items"`
}

// SectionDraft is one generated section.
type SectionDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// SectionsPayload is the payload of a KindSection response.
type SectionsPayload struct {
	Sections []SectionDraft `json:"sections"`
}

// QuestionDraft is one generated quiz question.
type QuestionDraft struct {
	Type        string   `json:"type"`
	Text        string   `json:"text"`
	Options     []string `json:"options,omitempty"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation,omitempty"`
}

// QuizPayload is the payload of a KindQuiz response.
type QuizPayload struct {
	Questions []QuestionDraft `json:"questions"`
}

// StyleOption is one answer of a questionnaire question, tied to a learning style.
type StyleOption struct {
	Text  string `json:"text"  yaml:"text"`
	Style string `json:"style" yaml:"style"`
}

// StyleQuestion is one questionnaire question.
type StyleQuestion struct {
	Text    string        `json:"text"    yaml:"text"`
	Options []StyleOption `json:"options" yaml:"options"`
}

// QuestionnairePayload is the payload of a KindStyleQuestionnaire response.
type QuestionnairePayload struct {
	Questions []StyleQuestion `json:"questions" yaml:"questions"`
}
