package db

import (
	"fmt"
	"time"

	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// Entity kinds as named in the entity store. Dependent kinds all carry
// a project_id foreign key back to KindProject.
const (
	KindProject          = "Project"
	KindTask             = "Task"
	KindRFI              = "RFI"
	KindFinancialLine    = "FinancialLine"
	KindCostCode         = "CostCode"
	KindDocument         = "Document"
	KindDocumentLink     = "DocumentLink"
	KindScheduleAuditLog = "ScheduleAuditLog"
	KindNotification     = "Notification"
	KindAuditLog         = "AuditLog"
	KindUser             = "User"
	KindAPIKey           = "APIKey"
)

// DependentKinds lists every kind owned by a project, in the canonical
// cascade order: records that reference a sibling kind always appear
// before the kind they reference, so no step of an in-flight cascade
// leaves a dangling pointer within the same cascade. AuditLog is
// deliberately absent; the trail outlives the project.
var DependentKinds = []string{
	KindScheduleAuditLog, // references Task
	KindTask,
	KindRFI,
	KindDocumentLink, // references Document
	KindDocument,
	KindFinancialLine, // references CostCode
	KindCostCode,
	KindNotification,
}

// DateOnly is the wire format for schedule dates.
const DateOnly = "2006-01-02"

// ParseDate parses a YYYY-MM-DD field value. Empty is not an error;
// callers treat the zero time as "unset".
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateOnly, s)
}

// User is owned by the external identity provider and mirrored into
// the store on first sight of a valid token.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"` // admin, user
	Company  string `json:"company,omitempty"`
	FCMToken string `json:"fcm_token,omitempty"`
}

func UserFromRecord(r store.Record) User {
	return User{
		ID:       r.ID(),
		Email:    r.Str("email"),
		Name:     r.Str("name"),
		Role:     r.Str("role"),
		Company:  r.Str("company"),
		FCMToken: r.Str("fcm_token"),
	}
}

func (u User) Fields() map[string]any {
	return map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"company":   u.Company,
		"fcm_token": u.FCMToken,
	}
}

// Project is the root of an access-scope tree.
type Project struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`          // planning, active, closed
	ProjectManager string   `json:"project_manager"` // email
	Superintendent string   `json:"superintendent"`  // email
	AssignedUsers  []string `json:"assigned_users"`  // emails
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	CreatedDate    string   `json:"created_date,omitempty"`
}

func ProjectFromRecord(r store.Record) Project {
	return Project{
		ID:             r.ID(),
		Name:           r.Str("name"),
		Status:         r.Str("status"),
		ProjectManager: r.Str("project_manager"),
		Superintendent: r.Str("superintendent"),
		AssignedUsers:  r.StrSlice("assigned_users"),
		StartDate:      r.Str("start_date"),
		EndDate:        r.Str("end_date"),
		CreatedDate:    r.Str("created_date"),
	}
}

func (p Project) Fields() map[string]any {
	assigned := p.AssignedUsers
	if assigned == nil {
		assigned = []string{}
	}
	return map[string]any{
		"name":            p.Name,
		"status":          p.Status,
		"project_manager": p.ProjectManager,
		"superintendent":  p.Superintendent,
		"assigned_users":  assigned,
		"start_date":      p.StartDate,
		"end_date":        p.EndDate,
	}
}

// Validate rejects malformed projects at the access boundary.
func (p Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if _, err := ParseDate(p.StartDate); err != nil {
		return fmt.Errorf("bad start_date %q", p.StartDate)
	}
	if _, err := ParseDate(p.EndDate); err != nil {
		return fmt.Errorf("bad end_date %q", p.EndDate)
	}
	return nil
}

// Task is a schedule line item under a project.
type Task struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"` // not_started, in_progress, complete
	AssignedTo      string  `json:"assigned_to,omitempty"`
	StartDate       string  `json:"start_date,omitempty"`
	EndDate         string  `json:"end_date,omitempty"`
	PercentComplete float64 `json:"percent_complete"`
	CostCodeID      string  `json:"cost_code_id,omitempty"`
	CreatedDate     string  `json:"created_date,omitempty"`
}

func TaskFromRecord(r store.Record) Task {
	pct, _ := r.Num("percent_complete")
	return Task{
		ID:              r.ID(),
		ProjectID:       r.Str("project_id"),
		Title:           r.Str("title"),
		Status:          r.Str("status"),
		AssignedTo:      r.Str("assigned_to"),
		StartDate:       r.Str("start_date"),
		EndDate:         r.Str("end_date"),
		PercentComplete: pct,
		CostCodeID:      r.Str("cost_code_id"),
		CreatedDate:     r.Str("created_date"),
	}
}

func (t Task) Fields() map[string]any {
	return map[string]any{
		"project_id":       t.ProjectID,
		"title":            t.Title,
		"status":           t.Status,
		"assigned_to":      t.AssignedTo,
		"start_date":       t.StartDate,
		"end_date":         t.EndDate,
		"percent_complete": t.PercentComplete,
		"cost_code_id":     t.CostCodeID,
	}
}

func (t Task) Validate() error {
	if t.ProjectID == "" {
		return fmt.Errorf("task project_id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if t.PercentComplete < 0 || t.PercentComplete > 100 {
		return fmt.Errorf("percent_complete must be within [0,100], got %v", t.PercentComplete)
	}
	if _, err := ParseDate(t.StartDate); err != nil {
		return fmt.Errorf("bad start_date %q", t.StartDate)
	}
	if _, err := ParseDate(t.EndDate); err != nil {
		return fmt.Errorf("bad end_date %q", t.EndDate)
	}
	return nil
}

// RFI is a request for information raised against a project.
type RFI struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Subject     string `json:"subject"`
	Question    string `json:"question"`
	Answer      string `json:"answer,omitempty"`
	Status      string `json:"status"` // open, answered, closed
	DueDate     string `json:"due_date,omitempty"`
	SubmittedBy string `json:"submitted_by,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
}

func RFIFromRecord(r store.Record) RFI {
	return RFI{
		ID:          r.ID(),
		ProjectID:   r.Str("project_id"),
		Subject:     r.Str("subject"),
		Question:    r.Str("question"),
		Answer:      r.Str("answer"),
		Status:      r.Str("status"),
		DueDate:     r.Str("due_date"),
		SubmittedBy: r.Str("submitted_by"),
		CreatedDate: r.Str("created_date"),
	}
}

func (f RFI) Fields() map[string]any {
	return map[string]any{
		"project_id":   f.ProjectID,
		"subject":      f.Subject,
		"question":     f.Question,
		"answer":       f.Answer,
		"status":       f.Status,
		"due_date":     f.DueDate,
		"submitted_by": f.SubmittedBy,
	}
}

func (f RFI) Validate() error {
	if f.ProjectID == "" {
		return fmt.Errorf("rfi project_id is required")
	}
	if f.Subject == "" {
		return fmt.Errorf("rfi subject is required")
	}
	if _, err := ParseDate(f.DueDate); err != nil {
		return fmt.Errorf("bad due_date %q", f.DueDate)
	}
	return nil
}

// FinancialLine is a budget/actual line under a project, optionally
// tied to a cost code. Amounts are signed only for change orders.
type FinancialLine struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	CostCodeID      string  `json:"cost_code_id,omitempty"`
	Description     string  `json:"description"`
	LineType        string  `json:"line_type"` // budget, actual, change_order
	Amount          float64 `json:"amount"`
	PercentComplete float64 `json:"percent_complete"`
	CreatedDate     string  `json:"created_date,omitempty"`
}

func FinancialLineFromRecord(r store.Record) FinancialLine {
	amount, _ := r.Num("amount")
	pct, _ := r.Num("percent_complete")
	return FinancialLine{
		ID:              r.ID(),
		ProjectID:       r.Str("project_id"),
		CostCodeID:      r.Str("cost_code_id"),
		Description:     r.Str("description"),
		LineType:        r.Str("line_type"),
		Amount:          amount,
		PercentComplete: pct,
		CreatedDate:     r.Str("created_date"),
	}
}

func (l FinancialLine) Fields() map[string]any {
	return map[string]any{
		"project_id":       l.ProjectID,
		"cost_code_id":     l.CostCodeID,
		"description":      l.Description,
		"line_type":        l.LineType,
		"amount":           l.Amount,
		"percent_complete": l.PercentComplete,
	}
}

// SignedAmountAllowed reports whether a negative amount is legal for
// this line.
func (l FinancialLine) SignedAmountAllowed() bool {
	return l.LineType == "change_order"
}

func (l FinancialLine) Validate() error {
	if l.ProjectID == "" {
		return fmt.Errorf("financial line project_id is required")
	}
	if l.Description == "" {
		return fmt.Errorf("financial line description is required")
	}
	if l.Amount < 0 && !l.SignedAmountAllowed() {
		return fmt.Errorf("amount must be non-negative for line_type %q", l.LineType)
	}
	if l.PercentComplete < 0 || l.PercentComplete > 100 {
		return fmt.Errorf("percent_complete must be within [0,100], got %v", l.PercentComplete)
	}
	return nil
}

// CostCode is a project-scoped cost classification; codes are unique
// within their project.
type CostCode struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Budget      float64 `json:"budget"`
	CreatedDate string  `json:"created_date,omitempty"`
}

func CostCodeFromRecord(r store.Record) CostCode {
	budget, _ := r.Num("budget")
	return CostCode{
		ID:          r.ID(),
		ProjectID:   r.Str("project_id"),
		Code:        r.Str("code"),
		Description: r.Str("description"),
		Budget:      budget,
		CreatedDate: r.Str("created_date"),
	}
}

func (c CostCode) Fields() map[string]any {
	return map[string]any{
		"project_id":  c.ProjectID,
		"code":        c.Code,
		"description": c.Description,
		"budget":      c.Budget,
	}
}

func (c CostCode) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("cost code project_id is required")
	}
	if c.Code == "" {
		return fmt.Errorf("cost code is required")
	}
	if c.Budget < 0 {
		return fmt.Errorf("budget must be non-negative, got %v", c.Budget)
	}
	return nil
}

// Document is file metadata under a project; the binary lives with the
// external storage provider.
type Document struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"` // drawing, submittal, photo, contract
	UploadedBy  string `json:"uploaded_by,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
}

func DocumentFromRecord(r store.Record) Document {
	return Document{
		ID:          r.ID(),
		ProjectID:   r.Str("project_id"),
		Name:        r.Str("name"),
		URL:         r.Str("url"),
		Category:    r.Str("category"),
		UploadedBy:  r.Str("uploaded_by"),
		CreatedDate: r.Str("created_date"),
	}
}

func (d Document) Fields() map[string]any {
	return map[string]any{
		"project_id":  d.ProjectID,
		"name":        d.Name,
		"url":         d.URL,
		"category":    d.Category,
		"uploaded_by": d.UploadedBy,
	}
}

// DocumentLink attaches a document to a task or RFI.
type DocumentLink struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	DocumentID  string `json:"document_id"`
	TargetKind  string `json:"target_kind"` // Task or RFI
	TargetID    string `json:"target_id"`
	CreatedDate string `json:"created_date,omitempty"`
}

func DocumentLinkFromRecord(r store.Record) DocumentLink {
	return DocumentLink{
		ID:          r.ID(),
		ProjectID:   r.Str("project_id"),
		DocumentID:  r.Str("document_id"),
		TargetKind:  r.Str("target_kind"),
		TargetID:    r.Str("target_id"),
		CreatedDate: r.Str("created_date"),
	}
}

func (l DocumentLink) Fields() map[string]any {
	return map[string]any{
		"project_id":  l.ProjectID,
		"document_id": l.DocumentID,
		"target_kind": l.TargetKind,
		"target_id":   l.TargetID,
	}
}

// ScheduleAuditLog records a schedule-affecting change to a task.
type ScheduleAuditLog struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	TaskID      string `json:"task_id"`
	Field       string `json:"field"`
	OldValue    string `json:"old_value"`
	NewValue    string `json:"new_value"`
	ChangedBy   string `json:"changed_by"`
	CreatedDate string `json:"created_date,omitempty"`
}

func ScheduleAuditLogFromRecord(r store.Record) ScheduleAuditLog {
	return ScheduleAuditLog{
		ID:          r.ID(),
		ProjectID:   r.Str("project_id"),
		TaskID:      r.Str("task_id"),
		Field:       r.Str("field"),
		OldValue:    r.Str("old_value"),
		NewValue:    r.Str("new_value"),
		ChangedBy:   r.Str("changed_by"),
		CreatedDate: r.Str("created_date"),
	}
}

func (s ScheduleAuditLog) Fields() map[string]any {
	return map[string]any{
		"project_id": s.ProjectID,
		"task_id":    s.TaskID,
		"field":      s.Field,
		"old_value":  s.OldValue,
		"new_value":  s.NewValue,
		"changed_by": s.ChangedBy,
	}
}

// Notification is an in-app notification, optionally project-scoped.
type Notification struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id,omitempty"`
	UserEmail   string `json:"user_email"`
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"`
	Read        bool   `json:"read"`
	CreatedDate string `json:"created_date,omitempty"`
}

func NotificationFromRecord(r store.Record) Notification {
	read, _ := r["read"].(bool)
	return Notification{
		ID:          r.ID(),
		ProjectID:   r.Str("project_id"),
		UserEmail:   r.Str("user_email"),
		Title:       r.Str("title"),
		Body:        r.Str("body"),
		Read:        read,
		CreatedDate: r.Str("created_date"),
	}
}

func (n Notification) Fields() map[string]any {
	return map[string]any{
		"project_id": n.ProjectID,
		"user_email": n.UserEmail,
		"title":      n.Title,
		"body":       n.Body,
		"read":       n.Read,
	}
}

// AuditLogRecord is the append-only trail for privileged mutations.
// Records are created as side effects and never mutated or deleted.
type AuditLogRecord struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	UserEmail   string `json:"user_email"`
	DetailsJSON string `json:"details_json,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
}

func AuditLogFromRecord(r store.Record) AuditLogRecord {
	return AuditLogRecord{
		ID:          r.ID(),
		Action:      r.Str("action"),
		UserEmail:   r.Str("user_email"),
		DetailsJSON: r.Str("details_json"),
		IPAddress:   r.Str("ip_address"),
		CreatedDate: r.Str("created_date"),
	}
}

// APIKey authenticates automation callers. Only the bcrypt hash of the
// secret is stored.
type APIKey struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UserID      string `json:"user_id"`
	UserEmail   string `json:"user_email"`
	Role        string `json:"role"`
	KeyHash     string `json:"-"`
	LastUsed    string `json:"last_used,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
}

func APIKeyFromRecord(r store.Record) APIKey {
	return APIKey{
		ID:          r.ID(),
		Name:        r.Str("name"),
		UserID:      r.Str("user_id"),
		UserEmail:   r.Str("user_email"),
		Role:        r.Str("role"),
		KeyHash:     r.Str("key_hash"),
		LastUsed:    r.Str("last_used"),
		CreatedDate: r.Str("created_date"),
	}
}

func (k APIKey) Fields() map[string]any {
	return map[string]any{
		"name":       k.Name,
		"user_id":    k.UserID,
		"user_email": k.UserEmail,
		"role":       k.Role,
		"key_hash":   k.KeyHash,
		"last_used":  k.LastUsed,
	}
}
