package schema

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Question is one entry of the survey catalog.
type Question struct {
	Number         int          `yaml:"number" json:"questionNumber"`
	Section        Section      `yaml:"section" json:"evaluationTarget"`
	Category       Category     `yaml:"category,omitempty" json:"evaluationType,omitempty"`
	Response       ResponseType `yaml:"response" json:"responseType"`
	Text           string       `yaml:"text" json:"questionText"`
	ExecutivesOnly bool         `yaml:"executives_only,omitempty" json:"forExecutivesOnly"`
	PeerSlot       int          `yaml:"peer_slot,omitempty" json:"peerSlot,omitempty"`
}

// IsScale reports whether the question is answered on the 5-point scale.
func (q Question) IsScale() bool {
	return q.Response == ScaleResponse
}

// IsFreeText reports whether the question collects an open-ended answer.
func (q Question) IsFreeText() bool {
	return q.Response == FreeTextResponse
}

// catalogFile is the on-disk layout of the catalog.
type catalogFile struct {
	Questions []Question `yaml:"questions"`
}

// Catalog is the immutable mapping of question numbers to categories, texts and audiences.
// All accessors return copies so callers can never mutate the shared instance.
type Catalog struct {
	questions []Question
	byNumber  map[int]Question
	own       map[Category][]int
	peer      map[Category][]int
	org       map[Category][]int
	peerByQ   map[int]int
	slotText  map[int]string
	text      []int
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question catalog: %w", err)
	}
	return NewCatalog(file.Questions)
}

// MustLoadCatalog is LoadCatalog that panics on a malformed catalog.
func MustLoadCatalog(data []byte) *Catalog {
	c, err := LoadCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the embedded catalog, loaded once.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = MustLoadCatalog(defaultCatalogYAML)
	})
	return defaultCatalog
}

// NewCatalog builds a catalog from question entries and validates every mapping.
func NewCatalog(questions []Question) (*Catalog, error) {
	c := &Catalog{
		byNumber: make(map[int]Question, len(questions)),
		own:      make(map[Category][]int),
		peer:     make(map[Category][]int),
		org:      make(map[Category][]int),
		peerByQ:  make(map[int]int),
		slotText: make(map[int]string),
	}

	for _, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		if _, dup := c.byNumber[q.Number]; dup {
			return nil, fmt.Errorf("question %d is defined more than once", q.Number)
		}
		c.byNumber[q.Number] = q
		c.questions = append(c.questions, q)

		switch {
		case q.Section == OwnDepartmentSection && q.IsScale():
			c.own[q.Category] = append(c.own[q.Category], q.Number)
		case q.Section == PeerDepartmentSection && q.IsScale():
			if _, dup := c.slotText[q.PeerSlot]; dup {
				return nil, fmt.Errorf("peer slot %d is used by more than one question", q.PeerSlot)
			}
			c.peer[q.Category] = append(c.peer[q.Category], q.PeerSlot)
			c.peerByQ[q.Number] = q.PeerSlot
			c.slotText[q.PeerSlot] = q.Text
		case q.Section == OrganizationSection && q.IsScale():
			c.org[q.Category] = append(c.org[q.Category], q.Number)
		case q.IsFreeText() && (q.Section == OrganizationSection || q.Section == GeneralOpinionSection):
			c.text = append(c.text, q.Number)
		}
	}

	for _, category := range AllCategories {
		if len(c.own[category]) == 0 {
			return nil, fmt.Errorf("category %s has no own-department questions", category)
		}
		if len(c.org[category]) == 0 {
			return nil, fmt.Errorf("category %s has no organization-wide questions", category)
		}
	}

	sort.Slice(c.questions, func(i, j int) bool { return c.questions[i].Number < c.questions[j].Number })
	for _, m := range []map[Category][]int{c.own, c.peer, c.org} {
		for _, nums := range m {
			slices.Sort(nums)
		}
	}
	slices.Sort(c.text)
	return c, nil
}

// validateQuestion checks a single entry in isolation.
func validateQuestion(q Question) error {
	if q.Number <= 0 {
		return fmt.Errorf("question number must be positive, got %d", q.Number)
	}
	if _, ok := ValidSections[q.Section]; !ok {
		return fmt.Errorf("question %d has unknown section %q", q.Number, q.Section)
	}
	if _, ok := ValidResponseTypes[q.Response]; !ok {
		return fmt.Errorf("question %d has unknown response type %q", q.Number, q.Response)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d has no text", q.Number)
	}
	if q.Category != "" && !q.Category.IsValid() {
		return fmt.Errorf("question %d has unknown category %q", q.Number, q.Category)
	}
	scored := q.IsScale() && (q.Section == OwnDepartmentSection || q.Section == PeerDepartmentSection || q.Section == OrganizationSection)
	if scored && q.Category == "" {
		return fmt.Errorf("scale question %d in section %s needs a category", q.Number, q.Section)
	}
	if q.Section == PeerDepartmentSection && q.IsScale() && q.PeerSlot <= 0 {
		return fmt.Errorf("peer question %d needs a positive peer_slot", q.Number)
	}
	if q.Section != PeerDepartmentSection && q.PeerSlot != 0 {
		return fmt.Errorf("question %d outside the peer section cannot declare a peer_slot", q.Number)
	}
	return nil
}

// Question returns the catalog entry for number n.
func (c *Catalog) Question(n int) (Question, bool) {
	q, ok := c.byNumber[n]
	return q, ok
}

// Questions returns every question ordered by number.
func (c *Catalog) Questions() []Question {
	return slices.Clone(c.questions)
}

// QuestionsBySection returns the questions addressed to one section, ordered by number.
func (c *Catalog) QuestionsBySection(section Section) []Question {
	var out []Question
	for _, q := range c.questions {
		if q.Section == section {
			out = append(out, q)
		}
	}
	return out
}

// OwnQuestions returns the own-department question numbers of a category.
func (c *Catalog) OwnQuestions(category Category) []int {
	return slices.Clone(c.own[category])
}

// PeerSlots returns the peer slot numbers of a category; culture has none.
func (c *Catalog) PeerSlots(category Category) []int {
	return slices.Clone(c.peer[category])
}

// OrganizationQuestions returns the organization-wide scale question numbers of a category.
func (c *Catalog) OrganizationQuestions(category Category) []int {
	return slices.Clone(c.org[category])
}

// AllOwnQuestions returns every own-department scale question number in category order.
func (c *Catalog) AllOwnQuestions() []int {
	return c.flatten(c.own)
}

// AllPeerSlots returns every peer slot number in category order.
func (c *Catalog) AllPeerSlots() []int {
	return c.flatten(c.peer)
}

// AllOrganizationQuestions returns every organization-wide scale question number in category order.
func (c *Catalog) AllOrganizationQuestions() []int {
	return c.flatten(c.org)
}

// TextQuestions returns the free-text question numbers collected for reporting.
func (c *Catalog) TextQuestions() []int {
	return slices.Clone(c.text)
}

// PeerSlotForQuestion maps a peer-department question to its accumulator slot.
func (c *Catalog) PeerSlotForQuestion(n int) (int, bool) {
	slot, ok := c.peerByQ[n]
	return slot, ok
}

// PeerSlotText returns the question text of a peer slot.
func (c *Catalog) PeerSlotText(slot int) string {
	return c.slotText[slot]
}

// CategoryOfOwn returns the category an own-department question belongs to.
func (c *Catalog) CategoryOfOwn(n int) (Category, bool) {
	q, ok := c.byNumber[n]
	if !ok || q.Section != OwnDepartmentSection || !q.IsScale() {
		return "", false
	}
	return q.Category, true
}

func (c *Catalog) flatten(m map[Category][]int) []int {
	var out []int
	for _, category := range AllCategories {
		out = append(out, m[category]...)
	}
	return out
}
