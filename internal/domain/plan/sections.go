package plan

// Section keys double as the record store column names.
const (
	SectionObjectives     = "kazanimlar"
	SectionEnvisioning    = "tasavvurat"
	SectionAffirmation    = "tasdikat"
	SectionModelPersona   = "model_sahsiyet"
	SectionEvidences      = "deliller"
	SectionWorkshopOutput = "atolye_uretimi"
	SectionFraternity     = "futuvet"
	SectionActivities     = "etkinlikler"
	SectionOralCulture    = "sozlu_kultur"
	SectionGameDesign     = "oyun_tasarimi"
)

// SectionDef names one long-text section of a plan.
type SectionDef struct {
	Key   string
	Title string
}

// Sections lists the long-text sections in their declared display order.
var Sections = []SectionDef{
	{Key: SectionObjectives, Title: "Kazanımlar"},
	{Key: SectionEnvisioning, Title: "Tasavvurat"},
	{Key: SectionAffirmation, Title: "Tasdikat"},
	{Key: SectionModelPersona, Title: "Model Şahsiyet"},
	{Key: SectionEvidences, Title: "Deliller"},
	{Key: SectionWorkshopOutput, Title: "Atölye Üretimi"},
	{Key: SectionFraternity, Title: "Fütüvvet"},
	{Key: SectionActivities, Title: "Etkinlikler"},
	{Key: SectionOralCulture, Title: "Sözlü Kültür"},
	{Key: SectionGameDesign, Title: "Oyun Tasarımı"},
}

// CurriculumTopicTitle is the panel title of the curriculum topic, which the
// detail view shows ahead of the long-text sections.
const CurriculumTopicTitle = "Müfredat Konusu"

// SectionKeys returns the section keys in declared order.
func SectionKeys() []string {
	keys := make([]string, len(Sections))
	for i, s := range Sections {
		keys[i] = s.Key
	}
	return keys
}

// IsSectionKey reports whether key names a long-text section.
func IsSectionKey(key string) bool {
	for _, s := range Sections {
		if s.Key == key {
			return true
		}
	}
	return false
}

// SectionTitle returns the display title for a section key.
func SectionTitle(key string) string {
	if key == FieldCurriculumTopic {
		return CurriculumTopicTitle
	}
	for _, s := range Sections {
		if s.Key == key {
			return s.Title
		}
	}
	return key
}

// Panel is one expandable region of the detail view.
type Panel struct {
	Key     string
	Title   string
	Content string // lightweight markup
}

// Panels returns the curriculum topic followed by every non-empty section,
// in declared order.
// INVARIANT: Plan fields are not mutated
func (p *Plan) Panels() []Panel {
	var panels []Panel
	if p.CurriculumTopic != "" {
		panels = append(panels, Panel{Key: FieldCurriculumTopic, Title: CurriculumTopicTitle, Content: p.CurriculumTopic})
	}
	for _, s := range Sections {
		if content := p.Section(s.Key); content != "" {
			panels = append(panels, Panel{Key: s.Key, Title: s.Title, Content: content})
		}
	}
	return panels
}
