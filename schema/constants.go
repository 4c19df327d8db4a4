package schema

// Custom string types for type safety.
type (
	// Department is one of the fixed organizational units being evaluated.
	Department string

	// Category represents one of the four evaluation dimensions.
	Category string

	// Position represents the rank of a respondent.
	Position string

	// Section represents the audience a question is addressed to.
	Section string

	// ResponseType represents how a question is answered.
	ResponseType string

	// SlotKind distinguishes own-department cells from peer-evaluation cells.
	SlotKind string

	// AnalysisType represents the target kind of a cached narrative report.
	AnalysisType string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// LLMProvider represents the provider used for narrative reports.
	LLMProvider string
)

// All departments, in the fixed display and tie-break order.
const (
	RegionalCooperation Department = "지역협력부"
	GridOperation       Department = "계통운영부"
	TransmissionOps     Department = "송전운영부"
	SubstationOps       Department = "변전운영부"
	ElectronicControl   Department = "전자제어부"
	CivilWorksOps       Department = "토건운영부"
	GangneungBranch     Department = "강릉전력"
	DonghaeBranch       Department = "동해전력"
	WonjuBranch         Department = "원주전력"
	TaebaekBranch       Department = "태백전력"
)

// All evaluation categories.
const (
	CultureCategory     Category = "조직문화"
	PerformanceCategory Category = "업무충실"
	CooperationCategory Category = "업무협조"
	InnovationCategory  Category = "업무혁신"
)

// All respondent positions.
const (
	EmployeePosition  Position = "직원"
	ExecutivePosition Position = "간부"
)

// All survey sections.
const (
	BasicInfoSection      Section = "기본정보"
	OwnDepartmentSection  Section = "본인 소속 조직"
	PeerDepartmentSection Section = "타 부서/지사"
	OrganizationSection   Section = "관리처 전반"
	GeneralOpinionSection Section = "종합 의견"
)

// All response types.
const (
	ScaleResponse    ResponseType = "5점척도"
	FreeTextResponse ResponseType = "서술형"
	ChoiceResponse   ResponseType = "선다형"
)

// All accumulator slot kinds.
const (
	OwnSlot  SlotKind = "own"
	PeerSlot SlotKind = "peer"
)

// All analysis types.
const (
	DepartmentAnalysis   AnalysisType = "department"
	OrganizationAnalysis AnalysisType = "management"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All LLM providers supported.
const (
	OpenAIProvider    LLMProvider = "openai" // default
	AnthropicProvider LLMProvider = "anthropic"
	GoogleProvider    LLMProvider = "google"
	NoProvider        LLMProvider = "none"
)

// Score bounds of a 5-point scale answer.
const (
	MinScaleScore = 1
	MaxScaleScore = 5
)

// AllDepartments lists every department in the fixed order.
var AllDepartments = []Department{
	RegionalCooperation,
	GridOperation,
	TransmissionOps,
	SubstationOps,
	ElectronicControl,
	CivilWorksOps,
	GangneungBranch,
	DonghaeBranch,
	WonjuBranch,
	TaebaekBranch,
}

// AllCategories lists every evaluation category in display order.
var AllCategories = []Category{CultureCategory, PerformanceCategory, CooperationCategory, InnovationCategory}

// ValidDepartments lists all valid departments.
var ValidDepartments = map[Department]struct{}{
	RegionalCooperation: {},
	GridOperation:       {},
	TransmissionOps:     {},
	SubstationOps:       {},
	ElectronicControl:   {},
	CivilWorksOps:       {},
	GangneungBranch:     {},
	DonghaeBranch:       {},
	WonjuBranch:         {},
	TaebaekBranch:       {},
}

// ValidCategories lists all valid categories.
var ValidCategories = map[Category]struct{}{
	CultureCategory:     {},
	PerformanceCategory: {},
	CooperationCategory: {},
	InnovationCategory:  {},
}

// ValidPositions lists all valid positions.
var ValidPositions = map[Position]struct{}{
	EmployeePosition:  {},
	ExecutivePosition: {},
}

// ValidSections lists all valid sections.
var ValidSections = map[Section]struct{}{
	BasicInfoSection:      {},
	OwnDepartmentSection:  {},
	PeerDepartmentSection: {},
	OrganizationSection:   {},
	GeneralOpinionSection: {},
}

// ValidResponseTypes lists all valid response types.
var ValidResponseTypes = map[ResponseType]struct{}{
	ScaleResponse:    {},
	FreeTextResponse: {},
	ChoiceResponse:   {},
}

// ValidAnalysisTypes lists all valid analysis types.
var ValidAnalysisTypes = map[AnalysisType]struct{}{
	DepartmentAnalysis:   {},
	OrganizationAnalysis: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidLLMProviders lists all valid LLM providers.
var ValidLLMProviders = map[LLMProvider]struct{}{
	OpenAIProvider:    {},
	AnthropicProvider: {},
	GoogleProvider:    {},
	NoProvider:        {},
}

// IsValid reports whether the department is part of the fixed set.
func (d Department) IsValid() bool {
	_, ok := ValidDepartments[d]
	return ok
}

// IsValid reports whether the category is one of the four dimensions.
func (c Category) IsValid() bool {
	_, ok := ValidCategories[c]
	return ok
}

// DepartmentIndex returns the position of d in AllDepartments, or -1.
func DepartmentIndex(d Department) int {
	for i, dept := range AllDepartments {
		if dept == d {
			return i
		}
	}
	return -1
}

// DepartmentCount is the size of the fixed department set.
func DepartmentCount() int {
	return len(AllDepartments)
}
