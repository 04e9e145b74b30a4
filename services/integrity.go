package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// futureHorizon bounds how far ahead a schedule date may sit before it
// counts as a violation.
const futureHorizon = 20 * 365 * 24 * time.Hour

// IntegrityReport is the outcome of a full referential scan.
type IntegrityReport struct {
	OrphanedRecords   []OrphanIssue  `json:"orphaned_records"`
	DateViolations    []DateIssue    `json:"date_violations"`
	NumericViolations []NumericIssue `json:"numeric_violations"`
	TotalIssues       int            `json:"total_issues"`
}

// OrphanIssue is a record whose foreign key resolves to nothing.
// ProjectID is set for broken project references; RefKind/RefID for
// broken intra-project references (task, cost code, document).
type OrphanIssue struct {
	EntityKind string `json:"entity_kind"`
	ID         string `json:"id"`
	ProjectID  string `json:"project_id,omitempty"`
	RefKind    string `json:"ref_kind,omitempty"`
	RefID      string `json:"ref_id,omitempty"`
}

// DateIssue is a record whose date fields are out of order or outside
// the sane bounds.
type DateIssue struct {
	EntityKind string `json:"entity_kind"`
	ID         string `json:"id"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Detail     string `json:"detail"`
}

// NumericIssue is a numeric field outside its domain.
type NumericIssue struct {
	EntityKind string  `json:"entity_kind"`
	ID         string  `json:"id"`
	Field      string  `json:"field"`
	Value      float64 `json:"value"`
	Detail     string  `json:"detail"`
}

// IntegrityService scans the whole store for orphaned foreign keys,
// invalid date ranges, and out-of-bound numeric fields. It is a
// read-only, on-demand admin diagnostic: exhaustive rather than
// incremental, and it never mutates state.
type IntegrityService struct {
	Store store.Store

	// now is swappable for tests pinning the future horizon.
	now func() time.Time
}

func NewIntegrityService(st store.Store) *IntegrityService {
	return &IntegrityService{Store: st, now: time.Now}
}

// RunIntegrityCheck performs the full scan. Any store error mid-scan
// fails the whole check: a partial orphan report silently hides issues,
// which is worse than an explicit failure.
func (s *IntegrityService) RunIntegrityCheck(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport

	projects, err := s.Store.List(ctx, db.KindProject, "created_date")
	if err != nil {
		return report, fmt.Errorf("integrity check failed listing projects: %w", err)
	}
	projectCreated := make(map[string]time.Time, len(projects))
	for _, rec := range projects {
		created, _ := time.Parse(time.RFC3339Nano, rec.Str("created_date"))
		projectCreated[rec.ID()] = created
	}

	// Load each dependent kind once. Absent kinds list as empty, which
	// is fine: the schema evolves.
	byKind := make(map[string][]store.Record, len(db.DependentKinds))
	for _, kind := range db.DependentKinds {
		recs, err := s.Store.List(ctx, kind, "created_date")
		if err != nil {
			return IntegrityReport{}, fmt.Errorf("integrity check failed listing %s: %w", kind, err)
		}
		byKind[kind] = recs
	}

	existing := func(kind string) map[string]bool {
		set := make(map[string]bool, len(byKind[kind]))
		for _, rec := range byKind[kind] {
			set[rec.ID()] = true
		}
		return set
	}
	taskIDs := existing(db.KindTask)
	costCodeIDs := existing(db.KindCostCode)
	documentIDs := existing(db.KindDocument)

	horizon := s.now().Add(futureHorizon)

	for _, kind := range db.DependentKinds {
		for _, rec := range byKind[kind] {
			projectID := rec.Str("project_id")
			created, known := projectCreated[projectID]
			if !known {
				report.OrphanedRecords = append(report.OrphanedRecords, OrphanIssue{
					EntityKind: kind,
					ID:         rec.ID(),
					ProjectID:  projectID,
				})
			}

			switch kind {
			case db.KindScheduleAuditLog:
				if taskID := rec.Str("task_id"); taskID != "" && !taskIDs[taskID] {
					report.OrphanedRecords = append(report.OrphanedRecords, OrphanIssue{
						EntityKind: kind, ID: rec.ID(), RefKind: db.KindTask, RefID: taskID,
					})
				}
			case db.KindFinancialLine:
				if ccID := rec.Str("cost_code_id"); ccID != "" && !costCodeIDs[ccID] {
					report.OrphanedRecords = append(report.OrphanedRecords, OrphanIssue{
						EntityKind: kind, ID: rec.ID(), RefKind: db.KindCostCode, RefID: ccID,
					})
				}
			case db.KindDocumentLink:
				if docID := rec.Str("document_id"); docID != "" && !documentIDs[docID] {
					report.OrphanedRecords = append(report.OrphanedRecords, OrphanIssue{
						EntityKind: kind, ID: rec.ID(), RefKind: db.KindDocument, RefID: docID,
					})
				}
			}

			if kind == db.KindTask {
				s.checkDates(&report, kind, rec, created, known, horizon)
				s.checkPercent(&report, kind, rec)
			}
			if kind == db.KindFinancialLine {
				s.checkPercent(&report, kind, rec)
				line := db.FinancialLineFromRecord(rec)
				if line.Amount < 0 && !line.SignedAmountAllowed() {
					report.NumericViolations = append(report.NumericViolations, NumericIssue{
						EntityKind: kind, ID: rec.ID(), Field: "amount", Value: line.Amount,
						Detail: fmt.Sprintf("negative amount on line_type %q", line.LineType),
					})
				}
			}
			if kind == db.KindCostCode {
				if budget, ok := rec.Num("budget"); ok && budget < 0 {
					report.NumericViolations = append(report.NumericViolations, NumericIssue{
						EntityKind: kind, ID: rec.ID(), Field: "budget", Value: budget,
						Detail: "negative budget",
					})
				}
			}
		}
	}

	// Projects carry their own start/end pair.
	for _, rec := range projects {
		s.checkDates(&report, db.KindProject, rec, projectCreated[rec.ID()], true, horizon)
	}

	report.TotalIssues = len(report.OrphanedRecords) + len(report.DateViolations) + len(report.NumericViolations)
	return report, nil
}

func (s *IntegrityService) checkDates(report *IntegrityReport, kind string, rec store.Record, projectCreated time.Time, projectKnown bool, horizon time.Time) {
	startStr := rec.Str("start_date")
	endStr := rec.Str("end_date")
	start, startErr := db.ParseDate(startStr)
	end, endErr := db.ParseDate(endStr)

	add := func(detail string) {
		report.DateViolations = append(report.DateViolations, DateIssue{
			EntityKind: kind, ID: rec.ID(), StartDate: startStr, EndDate: endStr, Detail: detail,
		})
	}

	if startErr != nil || endErr != nil {
		add("unparseable date field")
		return
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		add("start_date after end_date")
		return
	}
	// Dates before the owning project existed are suspicious; only
	// checkable while the project record is still around.
	if projectKnown && !projectCreated.IsZero() {
		floor := projectCreated.Truncate(24 * time.Hour)
		if kind != db.KindProject {
			if (!start.IsZero() && start.Before(floor)) || (!end.IsZero() && end.Before(floor)) {
				add("date precedes project creation")
				return
			}
		}
	}
	if (!start.IsZero() && start.After(horizon)) || (!end.IsZero() && end.After(horizon)) {
		add("date beyond future horizon")
	}
}

func (s *IntegrityService) checkPercent(report *IntegrityReport, kind string, rec store.Record) {
	if pct, ok := rec.Num("percent_complete"); ok && (pct < 0 || pct > 100) {
		report.NumericViolations = append(report.NumericViolations, NumericIssue{
			EntityKind: kind, ID: rec.ID(), Field: "percent_complete", Value: pct,
			Detail: "percentage outside [0,100]",
		})
	}
}
