// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package model

import "time"

// RepositoryStatus tracks a repository's position in the parsing pipeline.
type RepositoryStatus string

const (
	RepositoryPending   RepositoryStatus = "pending"
	RepositoryParsing   RepositoryStatus = "parsing"
	RepositoryCompleted RepositoryStatus = "completed"
	RepositoryFailed    RepositoryStatus = "failed"
)

// JobStatus tracks a parsing job's lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobParsing   JobStatus = "parsing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// SymbolKind enumerates the kinds of symbols a language parser can emit.
type SymbolKind string

const (
	KindModule    SymbolKind = "module"
	KindClass     SymbolKind = "class"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindImport    SymbolKind = "import"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindStruct    SymbolKind = "struct"
	KindTrait     SymbolKind = "trait"
	KindImpl      SymbolKind = "impl"
)

// ReferenceType enumerates the kinds of edges between symbols.
type ReferenceType string

const (
	RefCall           ReferenceType = "call"
	RefImport         ReferenceType = "import"
	RefInheritance    ReferenceType = "inheritance"
	RefTypeAnnotation ReferenceType = "type_annotation"
	RefInstantiation  ReferenceType = "instantiation"
	RefMember         ReferenceType = "member"
)

// EntryPointType enumerates the kinds of entry points the system detects.
type EntryPointType string

const (
	EntryHTTP      EntryPointType = "http"
	EntryEvent     EntryPointType = "event"
	EntryScheduler EntryPointType = "scheduler"
)

// LLMConfig holds per-organization LLM override settings.
type LLMConfig struct {
	APIKey    string `json:"api_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	ModelID   string `json:"model_id,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Organization is the top-level tenant; it owns a set of repositories.
type Organization struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	LLMConfig   *LLMConfig `json:"llm_config,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Repository is a single code repository owned by an Organization.
type Repository struct {
	ID             string                 `json:"id"`
	OrgID          string                 `json:"org_id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	RootPath       string                 `json:"root_path"`
	Status         RepositoryStatus       `json:"status"`
	TotalFiles     int                    `json:"total_files"`
	ParsedFiles    int                    `json:"parsed_files"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Languages      []string               `json:"languages"`
	RepoTree       map[string]interface{} `json:"repo_tree,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ProgressPercentage returns parsed/total*100, or 0 when total is 0.
func (r *Repository) ProgressPercentage() float64 {
	if r.TotalFiles == 0 {
		return 0
	}
	return float64(r.ParsedFiles) / float64(r.TotalFiles) * 100
}

// File is a single source file within a Repository.
type File struct {
	ID              string                 `json:"id"`
	RepoID          string                 `json:"repo_id"`
	RelativePath    string                 `json:"relative_path"`
	Language        string                 `json:"language"`
	ContentHash     string                 `json:"content_hash"`
	Content         string                 `json:"content,omitempty"`
	FolderStructure map[string]interface{} `json:"folder_structure,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Symbol is a code entity extracted from a File: a function, class, method,
// variable, and so on.
type Symbol struct {
	ID               string                 `json:"id"`
	FileID           string                 `json:"file_id"`
	RepoID           string                 `json:"repo_id"`
	Name             string                 `json:"name"`
	QualifiedName    string                 `json:"qualified_name"`
	Kind             SymbolKind             `json:"kind"`
	SourceCode       string                 `json:"source_code"`
	Signature        string                 `json:"signature,omitempty"`
	ParentSymbolID   string                 `json:"parent_symbol_id,omitempty"`
	ExtraData        map[string]interface{} `json:"extra_data,omitempty"`
	StartLine        *int                   `json:"start_line,omitempty"`
	EndLine          *int                   `json:"end_line,omitempty"`
	StartCol         *int                   `json:"start_col,omitempty"`
	EndCol           *int                   `json:"end_col,omitempty"`
}

// Reference is a directed edge from one symbol to another — a call, import,
// inheritance link, type annotation, instantiation, or container membership.
// Source and target are addressed by file path + symbol name in addition to
// symbol ID, since the target symbol may not yet be known (or never resolve).
type Reference struct {
	ID               string        `json:"id"`
	RepoID           string        `json:"repo_id"`
	SourceSymbolID   string        `json:"source_symbol_id"`
	TargetSymbolID   string        `json:"target_symbol_id,omitempty"`
	SourceFilePath   string        `json:"source_file_path"`
	SourceSymbolName string        `json:"source_symbol_name"`
	TargetFilePath   string        `json:"target_file_path"`
	TargetSymbolName string        `json:"target_symbol_name"`
	ReferenceType    ReferenceType `json:"reference_type"`
}

// ParsingJob tracks the lifecycle of one parse pass over a Repository.
type ParsingJob struct {
	ID           string     `json:"id"`
	RepoID       string     `json:"repo_id"`
	Status       JobStatus  `json:"status"`
	WorkerID     string     `json:"worker_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// EntryPointCandidate is a file-level proposal, before per-symbol confirmation.
type EntryPointCandidate struct {
	ID               string                 `json:"id"`
	RepoID           string                 `json:"repo_id"`
	SymbolID         string                 `json:"symbol_id"`
	FileID           string                 `json:"file_id"`
	EntryPointType   EntryPointType         `json:"entry_point_type"`
	Framework        string                 `json:"framework"`
	DetectionPattern string                 `json:"detection_pattern"`
	EntryMetadata    map[string]interface{} `json:"entry_metadata,omitempty"`
	ConfidenceScore  *float64               `json:"confidence_score,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// ConfirmedEntryPoint is an LLM-confirmed, user-facing entry point.
type ConfirmedEntryPoint struct {
	ID             string                 `json:"id"`
	RepoID         string                 `json:"repo_id"`
	SymbolID       string                 `json:"symbol_id"`
	FileID         string                 `json:"file_id"`
	EntryPointType EntryPointType         `json:"entry_point_type"`
	Framework      string                 `json:"framework"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	EntryMetadata  map[string]interface{} `json:"entry_metadata,omitempty"`
	AIConfidence   float64                `json:"ai_confidence"`
	AIReasoning    string                 `json:"ai_reasoning,omitempty"`
	DetectedAt     time.Time              `json:"detected_at"`
	ConfirmedAt    time.Time              `json:"confirmed_at"`
}

// LineRange is an inclusive 1-indexed line span within a file.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CodeSnippet is a resolved excerpt of source attached to a FlowStep.
type CodeSnippet struct {
	Code          string    `json:"code"`
	SymbolName    string    `json:"symbol_name"`
	QualifiedName string    `json:"qualified_name,omitempty"`
	FilePath      string    `json:"file_path"`
	LineRange     LineRange `json:"line_range"`
}

// FlowStep is one step of a documented entry-point flow.
type FlowStep struct {
	StepNumber            int           `json:"step_number"`
	Title                 string        `json:"title"`
	Description           string        `json:"description"`
	FilePath              string        `json:"file_path"`
	ImportantLogLines     []string      `json:"important_log_lines,omitempty"`
	ImportantCodeSnippets []CodeSnippet `json:"important_code_snippets,omitempty"`
}

// EntryPointFlow is the synthesized, iteratively-expanded documentation of
// everything that happens downstream of one confirmed entry point.
type EntryPointFlow struct {
	ID                  string     `json:"id"`
	EntryPointID        string     `json:"entry_point_id"`
	RepoID              string     `json:"repo_id"`
	FlowName            string     `json:"flow_name"`
	TechnicalSummary    string     `json:"technical_summary"`
	FilePaths           []string   `json:"file_paths"`
	Steps               []FlowStep `json:"steps"`
	MaxDepthAnalyzed     int        `json:"max_depth_analyzed"`
	IterationsCompleted int        `json:"iterations_completed"`
	SymbolIDsAnalyzed   []string   `json:"symbol_ids_analyzed"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
