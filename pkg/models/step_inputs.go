package models

// Row is a table row. The owning table is carried in the "tableId" field.
type Row map[string]any

// TableID returns the table the row belongs to.
func (r Row) TableID() string {
	id, _ := r["tableId"].(string)

	return id
}

// ID returns the row identity, if the row has been stored.
func (r Row) ID() string {
	id, _ := r["_id"].(string)

	return id
}

type CreateRowStepInputs struct {
	Row Row `json:"row"`
}

func (CreateRowStepInputs) ActionStepID() AutomationActionStepID { return ActionCreateRow }

type UpdateRowStepInputs struct {
	Meta  map[string]any `json:"meta,omitempty"`
	Row   Row            `json:"row"`
	RowID string         `json:"rowId"`
}

func (UpdateRowStepInputs) ActionStepID() AutomationActionStepID { return ActionUpdateRow }

type DeleteRowStepInputs struct {
	TableID  string `json:"tableId"`
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
}

func (DeleteRowStepInputs) ActionStepID() AutomationActionStepID { return ActionDeleteRow }

// EmailAttachment references a file to attach to an outgoing email.
type EmailAttachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type SmtpEmailStepInputs struct {
	To          string            `json:"to"`
	From        string            `json:"from"`
	Subject     string            `json:"subject"`
	Contents    string            `json:"contents"`
	CC          string            `json:"cc,omitempty"`
	BCC         string            `json:"bcc,omitempty"`
	AddInvite   bool              `json:"addInvite,omitempty"`
	StartTime   string            `json:"startTime,omitempty"`
	EndTime     string            `json:"endTime,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Location    string            `json:"location,omitempty"`
	URL         string            `json:"url,omitempty"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
}

func (SmtpEmailStepInputs) ActionStepID() AutomationActionStepID { return ActionSendEmailSMTP }

// QueryReference points at a saved datasource query and its parameters.
type QueryReference struct {
	QueryID    string            `json:"queryId"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type ExecuteQueryStepInputs struct {
	Query QueryReference `json:"query"`
}

func (ExecuteQueryStepInputs) ActionStepID() AutomationActionStepID { return ActionExecuteQuery }

// SortOrder orders query results.
type SortOrder string

const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

type QueryRowsStepInputs struct {
	TableID    string        `json:"tableId"`
	Filters    SearchFilters `json:"filters"`
	SortColumn string        `json:"sortColumn,omitempty"`
	SortOrder  SortOrder     `json:"sortOrder,omitempty"`
	Limit      int           `json:"limit,omitempty"`
}

func (QueryRowsStepInputs) ActionStepID() AutomationActionStepID { return ActionQueryRows }

// LoopStepType tells how a loop binding is split into items.
type LoopStepType string

const (
	LoopArray  LoopStepType = "Array"
	LoopString LoopStepType = "String"
)

// LoopStepInputs repeats the following step once per item of Binding.
type LoopStepInputs struct {
	Option           LoopStepType `json:"option"`
	Binding          any          `json:"binding"`
	IterationsLimit  int          `json:"iterations,omitempty"`
	FailureCondition string       `json:"failure,omitempty"`
}

func (LoopStepInputs) ActionStepID() AutomationActionStepID { return ActionLoop }

type ServerLogStepInputs struct {
	Text string `json:"text"`
}

func (ServerLogStepInputs) ActionStepID() AutomationActionStepID { return ActionServerLog }

// Branch names one conditional path of a branch step.
type Branch struct {
	Name      string        `json:"name"`
	Condition SearchFilters `json:"condition"`
}

// BranchStepInputs holds the ordered branch descriptors and each branch's own step list.
type BranchStepInputs struct {
	Branches []Branch                     `json:"branches"`
	Children map[string][]*AutomationStep `json:"children"`
}

func (BranchStepInputs) ActionStepID() AutomationActionStepID { return ActionBranch }
