package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/domain"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// mockReportRepo satisfies repository.ReportRepository. Unset functions
// report no rows.
type mockReportRepo struct {
	createFn        func(ctx context.Context, report *domain.Report) error
	getByIDFn       func(ctx context.Context, id int64) (*domain.Report, error)
	listVisibleToFn func(ctx context.Context, userID int64, limit, offset int) ([]domain.Report, error)
	listAllFn       func(ctx context.Context, limit, offset int) ([]domain.Report, error)
	updateFieldsFn  func(ctx context.Context, id int64, fields map[string]any) error
	deleteFn        func(ctx context.Context, id int64) error
}

func (m *mockReportRepo) Create(ctx context.Context, report *domain.Report) error {
	if m.createFn == nil {
		report.ID = 1
		return nil
	}
	return m.createFn(ctx, report)
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	if m.getByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockReportRepo) ListVisibleTo(ctx context.Context, userID int64, limit, offset int) ([]domain.Report, error) {
	if m.listVisibleToFn == nil {
		return nil, nil
	}
	return m.listVisibleToFn(ctx, userID, limit, offset)
}

func (m *mockReportRepo) ListAll(ctx context.Context, limit, offset int) ([]domain.Report, error) {
	if m.listAllFn == nil {
		return nil, nil
	}
	return m.listAllFn(ctx, limit, offset)
}

func (m *mockReportRepo) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if m.updateFieldsFn == nil {
		return nil
	}
	return m.updateFieldsFn(ctx, id, fields)
}

func (m *mockReportRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

// mockCommentRepo satisfies repository.CommentRepository.
type mockCommentRepo struct {
	createFn       func(ctx context.Context, comment *domain.Comment) error
	getByIDFn      func(ctx context.Context, id int64) (*domain.Comment, error)
	listByReportFn func(ctx context.Context, reportID int64) ([]domain.Comment, error)
	deleteFn       func(ctx context.Context, id int64) error
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	if m.createFn == nil {
		comment.ID = 1
		return nil
	}
	return m.createFn(ctx, comment)
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	if m.getByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockCommentRepo) ListByReport(ctx context.Context, reportID int64) ([]domain.Comment, error) {
	if m.listByReportFn == nil {
		return nil, nil
	}
	return m.listByReportFn(ctx, reportID)
}

func (m *mockCommentRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

// plainUserGuards returns guards whose admin confirmation always fails,
// so only ownership grants access.
func plainUserGuards() *auth.Guards {
	return auth.NewGuards(&mockUserRepo{})
}

// adminGuards returns guards that confirm the given id as an admin.
func adminGuards(adminID int64) *auth.Guards {
	return auth.NewGuards(&mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			if id == adminID {
				return &domain.User{ID: id, Role: domain.RoleAdmin}, nil
			}
			return nil, pgx.ErrNoRows
		},
	})
}

func TestIsVisible(t *testing.T) {
	owner := &domain.Identity{UserID: 1, Role: domain.RoleUser}
	other := &domain.Identity{UserID: 2, Role: domain.RoleUser}

	publicReport := &domain.Report{ID: 1, OwnerID: 1, Status: domain.StatusPublic}
	privateReport := &domain.Report{ID: 2, OwnerID: 1, Status: domain.StatusPrivate}
	closedReport := &domain.Report{ID: 3, OwnerID: 1, Status: domain.StatusClosed}
	weirdReport := &domain.Report{ID: 4, OwnerID: 1, Status: domain.ReportStatus("draft")}

	cases := []struct {
		name     string
		report   *domain.Report
		identity *domain.Identity
		want     bool
	}{
		{"public to anonymous", publicReport, nil, true},
		{"public to stranger", publicReport, other, true},
		{"private to owner", privateReport, owner, true},
		{"private to stranger", privateReport, other, false},
		{"private to anonymous", privateReport, nil, false},
		{"closed to owner", closedReport, owner, false},
		{"unknown status denies", weirdReport, owner, false},
		{"nil report", nil, owner, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsVisible(tc.report, tc.identity); got != tc.want {
				t.Errorf("IsVisible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCreateReportValidation(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, &mockCommentRepo{}, plainUserGuards(), nil)
	ctx := context.Background()
	caller := &domain.Identity{UserID: 1, Role: domain.RoleUser}

	if _, err := svc.CreateReport(ctx, nil, ReportCreateInput{}, ""); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("anonymous create = %v, want UNAUTHORIZED", err)
	}

	cases := []struct {
		name  string
		input ReportCreateInput
	}{
		{"missing title", ReportCreateInput{Description: "d", Severity: domain.SeverityLow, Status: domain.StatusPublic}},
		{"blank description", ReportCreateInput{Title: "t", Description: "   ", Severity: domain.SeverityLow, Status: domain.StatusPublic}},
		{"bad severity", ReportCreateInput{Title: "t", Description: "d", Severity: "critical", Status: domain.StatusPublic}},
		{"closed at creation", ReportCreateInput{Title: "t", Description: "d", Severity: domain.SeverityLow, Status: domain.StatusClosed}},
		{"unknown status", ReportCreateInput{Title: "t", Description: "d", Severity: domain.SeverityLow, Status: "draft"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateReport(ctx, caller, tc.input, ""); !apperrors.IsCode(err, "VALIDATION_FAILED") {
				t.Fatalf("CreateReport error = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestCreateReportAssignsOwner(t *testing.T) {
	var created *domain.Report
	reports := &mockReportRepo{
		createFn: func(_ context.Context, report *domain.Report) error {
			report.ID = 11
			created = report
			return nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, plainUserGuards(), nil)

	report, err := svc.CreateReport(context.Background(), &domain.Identity{UserID: 5, Role: domain.RoleUser}, ReportCreateInput{
		Title:       "  SQL injection in search  ",
		Description: "details",
		Severity:    domain.SeverityHigh,
		Status:      domain.StatusPrivate,
	}, "198.51.100.1")
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if created.OwnerID != 5 {
		t.Errorf("owner = %d, want the caller", created.OwnerID)
	}
	if created.Title != "SQL injection in search" {
		t.Errorf("title = %q, want trimmed", created.Title)
	}
	if report.ID != 11 {
		t.Errorf("report id = %d, want 11", report.ID)
	}
}

func TestGetReportHidesPrivateFromStrangers(t *testing.T) {
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPrivate}, nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, plainUserGuards(), nil)
	ctx := context.Background()

	if _, err := svc.GetReport(ctx, &domain.Identity{UserID: 2, Role: domain.RoleUser}, 10); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("stranger read = %v, want NOT_FOUND", err)
	}
	if _, err := svc.GetReport(ctx, nil, 10); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("anonymous read = %v, want NOT_FOUND", err)
	}
	if _, err := svc.GetReport(ctx, &domain.Identity{UserID: 1, Role: domain.RoleUser}, 10); err != nil {
		t.Fatalf("owner read = %v, want success", err)
	}
}

func TestGetReportMissing(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, &mockCommentRepo{}, plainUserGuards(), nil)
	if _, err := svc.GetReport(context.Background(), nil, 999); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("missing report = %v, want NOT_FOUND", err)
	}
}

func TestUpdateReportAuthorization(t *testing.T) {
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPublic}, nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, adminGuards(99), nil)
	ctx := context.Background()
	title := "new title"

	if _, err := svc.UpdateReport(ctx, &domain.Identity{UserID: 2, Role: domain.RoleUser}, 10, ReportUpdateInput{Title: &title}, ""); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("stranger update = %v, want NOT_FOUND", err)
	}
	if _, err := svc.UpdateReport(ctx, &domain.Identity{UserID: 1, Role: domain.RoleUser}, 10, ReportUpdateInput{Title: &title}, ""); err != nil {
		t.Fatalf("owner update = %v, want success", err)
	}
	if _, err := svc.UpdateReport(ctx, &domain.Identity{UserID: 99, Role: domain.RoleAdmin}, 10, ReportUpdateInput{Title: &title}, ""); err != nil {
		t.Fatalf("admin update = %v, want success", err)
	}
}

func TestUpdateReportStatusRestrictions(t *testing.T) {
	var updated map[string]any
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPublic}, nil
		},
		updateFieldsFn: func(_ context.Context, _ int64, fields map[string]any) error {
			updated = fields
			return nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, plainUserGuards(), nil)
	ctx := context.Background()
	owner := &domain.Identity{UserID: 1, Role: domain.RoleUser}

	closed := domain.StatusClosed
	if _, err := svc.UpdateReport(ctx, owner, 10, ReportUpdateInput{Status: &closed}, ""); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("owner closing = %v, want VALIDATION_FAILED", err)
	}

	private := domain.StatusPrivate
	if _, err := svc.UpdateReport(ctx, owner, 10, ReportUpdateInput{Status: &private}, ""); err != nil {
		t.Fatalf("owner to private = %v, want success", err)
	}
	if got, ok := updated["status"]; !ok || got != domain.StatusPrivate {
		t.Errorf("updated fields = %v, want status=private", updated)
	}

	if _, err := svc.UpdateReport(ctx, owner, 10, ReportUpdateInput{}, ""); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("empty update = %v, want VALIDATION_FAILED", err)
	}
}

func TestAdminSetStatusMayClose(t *testing.T) {
	var updated map[string]any
	reports := &mockReportRepo{
		updateFieldsFn: func(_ context.Context, _ int64, fields map[string]any) error {
			updated = fields
			return nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, adminGuards(99), nil)
	admin := &domain.Identity{UserID: 99, Role: domain.RoleAdmin}

	if err := svc.AdminSetStatus(context.Background(), admin, 10, domain.StatusClosed, ""); err != nil {
		t.Fatalf("AdminSetStatus: %v", err)
	}
	if got := updated["status"]; got != domain.StatusClosed {
		t.Errorf("updated status = %v, want closed", got)
	}
	if err := svc.AdminSetStatus(context.Background(), admin, 10, "archived", ""); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("invalid status = %v, want VALIDATION_FAILED", err)
	}
}

func TestAddCommentOnPrivateReport(t *testing.T) {
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPrivate}, nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, adminGuards(99), nil)
	ctx := context.Background()

	// A private report accepts comments only from its owner or an admin.
	if _, err := svc.AddComment(ctx, &domain.Identity{UserID: 2, Role: domain.RoleUser}, 10, "hi"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("stranger comment = %v, want NOT_FOUND", err)
	}
	if _, err := svc.AddComment(ctx, nil, 10, "hi"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("anonymous comment = %v, want UNAUTHORIZED", err)
	}
	if _, err := svc.AddComment(ctx, &domain.Identity{UserID: 1, Role: domain.RoleUser}, 10, "hi"); err != nil {
		t.Fatalf("owner comment = %v, want success", err)
	}
	if _, err := svc.AddComment(ctx, &domain.Identity{UserID: 99, Role: domain.RoleAdmin}, 10, "hi"); err != nil {
		t.Fatalf("admin comment = %v, want success", err)
	}
}

func TestAddCommentValidation(t *testing.T) {
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPublic}, nil
		},
	}
	var created *domain.Comment
	comments := &mockCommentRepo{
		createFn: func(_ context.Context, comment *domain.Comment) error {
			comment.ID = 5
			created = comment
			return nil
		},
	}
	svc := NewReportService(reports, comments, plainUserGuards(), nil)
	caller := &domain.Identity{UserID: 2, Role: domain.RoleUser}

	if _, err := svc.AddComment(context.Background(), caller, 10, "   "); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("blank comment = %v, want VALIDATION_FAILED", err)
	}

	comment, err := svc.AddComment(context.Background(), caller, 10, "  looks exploitable  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if created.UserID != 2 || created.ReportID != 10 {
		t.Errorf("comment attribution = user %d report %d", created.UserID, created.ReportID)
	}
	if comment.Content != "looks exploitable" {
		t.Errorf("content = %q, want trimmed", comment.Content)
	}
}

func TestListCommentsAppliesVisibility(t *testing.T) {
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPrivate}, nil
		},
	}
	comments := &mockCommentRepo{
		listByReportFn: func(_ context.Context, reportID int64) ([]domain.Comment, error) {
			return []domain.Comment{{ID: 1, ReportID: reportID, UserID: 1, Content: "first"}}, nil
		},
	}
	svc := NewReportService(reports, comments, plainUserGuards(), nil)
	ctx := context.Background()

	if _, err := svc.ListComments(ctx, &domain.Identity{UserID: 2, Role: domain.RoleUser}, 10); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("stranger listing = %v, want NOT_FOUND", err)
	}
	listed, err := svc.ListComments(ctx, &domain.Identity{UserID: 1, Role: domain.RoleUser}, 10)
	if err != nil {
		t.Fatalf("owner listing: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("got %d comments, want 1", len(listed))
	}
}

func TestDeleteCommentAuthorOrAdmin(t *testing.T) {
	comments := &mockCommentRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Comment, error) {
			return &domain.Comment{ID: id, ReportID: 10, UserID: 2, Content: "hi"}, nil
		},
	}
	svc := NewReportService(&mockReportRepo{}, comments, adminGuards(99), nil)
	ctx := context.Background()

	if err := svc.DeleteComment(ctx, &domain.Identity{UserID: 3, Role: domain.RoleUser}, 5, ""); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("stranger delete = %v, want NOT_FOUND", err)
	}
	if err := svc.DeleteComment(ctx, &domain.Identity{UserID: 2, Role: domain.RoleUser}, 5, ""); err != nil {
		t.Fatalf("author delete = %v, want success", err)
	}
	if err := svc.DeleteComment(ctx, &domain.Identity{UserID: 99, Role: domain.RoleAdmin}, 5, ""); err != nil {
		t.Fatalf("admin delete = %v, want success", err)
	}
}

func TestDeleteReportOwnerOrAdmin(t *testing.T) {
	reports := &mockReportRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Report, error) {
			return &domain.Report{ID: id, OwnerID: 1, Status: domain.StatusPublic}, nil
		},
	}
	svc := NewReportService(reports, &mockCommentRepo{}, adminGuards(99), nil)
	ctx := context.Background()

	if err := svc.DeleteReport(ctx, &domain.Identity{UserID: 2, Role: domain.RoleUser}, 10, ""); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("stranger delete = %v, want NOT_FOUND", err)
	}
	if err := svc.DeleteReport(ctx, &domain.Identity{UserID: 1, Role: domain.RoleUser}, 10, ""); err != nil {
		t.Fatalf("owner delete = %v, want success", err)
	}
}
