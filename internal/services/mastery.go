package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
	masterytypes "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/modules/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type ClassGaps struct {
	ClassID         uuid.UUID                       `json:"class_id"`
	ClassSize       int                             `json:"class_size"`
	Gaps            []mastery.GapReport             `json:"gaps"`
	Recommendations []mastery.ReteachRecommendation `json:"recommendations,omitempty"`
}

type MasteryService interface {
	GetMasteryForStudent(ctx context.Context, caller auth.Caller, studentID uuid.UUID) (*mastery.StudentMastery, error)
	GetGapsForClass(ctx context.Context, caller auth.Caller, classID uuid.UUID, withRecommendations bool) (*ClassGaps, error)
	GetMasteryForClass(ctx context.Context, caller auth.Caller, classID uuid.UUID, standardID uuid.UUID) (*mastery.ClassMatrix, error)
}

type MasteryServiceDeps struct {
	Log     *logger.Logger
	Repos   repos.Set
	Advisor mastery.Advisor
}

type masteryService struct {
	deps   MasteryServiceDeps
	access access
	log    *logger.Logger
}

func NewMasteryService(deps MasteryServiceDeps) MasteryService {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &masteryService{
		deps:   deps,
		access: access{members: deps.Repos.ClassMembers},
		log:    deps.Log.With("service", "MasteryService"),
	}
}

// GetMasteryForStudent lets students read their own ledger, teachers read students they
// teach, and admins read anyone.
func (s *masteryService) GetMasteryForStudent(ctx context.Context, caller auth.Caller, studentID uuid.UUID) (*mastery.StudentMastery, error) {
	const op = "MasteryService.GetMasteryForStudent"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if studentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing student id", nil)
	}
	switch {
	case privileged(caller):
	case caller.Role == auth.RoleStudent:
		if caller.UserID != studentID {
			return nil, errForbidden("view another student's mastery")
		}
	case caller.Role == auth.RoleTeacher:
		ok, err := s.access.teachesStudent(ctx, caller.UserID, studentID)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		if !ok {
			return nil, errForbidden("view this student's mastery")
		}
	default:
		return nil, errForbidden("view mastery")
	}

	dbc := dbctx.Context{Ctx: ctx}
	history, err := s.deps.Repos.MasteryRecords.ListByStudent(dbc, studentID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	records := make([]masterytypes.MasteryRecord, 0, len(history))
	standardIDs := make([]uuid.UUID, 0)
	sourceIDs := make([]uuid.UUID, 0)
	seenStd, seenSrc := map[uuid.UUID]bool{}, map[uuid.UUID]bool{}
	for _, r := range history {
		records = append(records, *r)
		if !seenStd[r.StandardID] {
			seenStd[r.StandardID] = true
			standardIDs = append(standardIDs, r.StandardID)
		}
		if !seenSrc[r.Source] {
			seenSrc[r.Source] = true
			sourceIDs = append(sourceIDs, r.Source)
		}
	}

	standards, err := s.standardsByID(dbc, standardIDs)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	titles := map[uuid.UUID]string{}
	if len(sourceIDs) > 0 {
		asgs, err := s.deps.Repos.Assignments.GetByIDs(dbc, sourceIDs)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		for _, a := range asgs {
			titles[a.ID] = a.Title
		}
	}

	view := mastery.BuildStudentView(studentID, records, standards, titles)
	return &view, nil
}

// GetGapsForClass reports standards where the class's latest mastery is weak. Recommendations
// are best effort and omitted when the generator fails.
func (s *masteryService) GetGapsForClass(ctx context.Context, caller auth.Caller, classID uuid.UUID, withRecommendations bool) (*ClassGaps, error) {
	const op = "MasteryService.GetGapsForClass"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if err := s.requireClassView(ctx, op, caller, classID, "view class gaps"); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	students, err := s.deps.Repos.ClassMembers.ListByClass(dbc, classID, masterytypes.ClassRoleStudent)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	out := &ClassGaps{ClassID: classID, ClassSize: len(students), Gaps: []mastery.GapReport{}}
	if len(students) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(students))
	names := make(map[uuid.UUID]string, len(students))
	for _, m := range students {
		ids = append(ids, m.UserID)
		names[m.UserID] = m.Name
	}
	history, err := s.deps.Repos.MasteryRecords.ListByStudents(dbc, ids)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	records := make([]masterytypes.MasteryRecord, 0, len(history))
	for _, r := range history {
		records = append(records, *r)
	}

	gaps := mastery.Gaps(mastery.LatestPerStudentStandard(records), len(students))
	standardIDs := make([]uuid.UUID, 0, len(gaps))
	for _, g := range gaps {
		standardIDs = append(standardIDs, g.StandardID)
	}
	standards, err := s.standardsByID(dbc, standardIDs)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	for i := range gaps {
		g := &gaps[i]
		g.StandardCode = "Unknown"
		if std, ok := standards[g.StandardID]; ok {
			g.StandardCode = std.Code
			g.StandardDescription = std.Description
			g.Subject = std.Subject
			g.Domain = std.Domain
		}
		for j := range g.StudentsBelow {
			g.StudentsBelow[j].StudentName = names[g.StudentsBelow[j].StudentID]
		}
	}
	out.Gaps = gaps

	if withRecommendations && s.deps.Advisor != nil {
		recs, err := s.deps.Advisor.ReteachActivities(ctx, gaps)
		if err != nil {
			s.log.Warn("reteach recommendations unavailable", "class_id", classID, "error", err)
		} else {
			out.Recommendations = recs
		}
	}
	return out, nil
}

// GetMasteryForClass returns the latest level of every student in the class per standard.
// A non-zero standardID narrows the matrix to that standard.
func (s *masteryService) GetMasteryForClass(ctx context.Context, caller auth.Caller, classID uuid.UUID, standardID uuid.UUID) (*mastery.ClassMatrix, error) {
	const op = "MasteryService.GetMasteryForClass"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if err := s.requireClassView(ctx, op, caller, classID, "view class mastery"); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	members, err := s.deps.Repos.ClassMembers.ListByClass(dbc, classID, masterytypes.ClassRoleStudent)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	roster := make([]masterytypes.ClassMember, 0, len(members))
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		roster = append(roster, *m)
		ids = append(ids, m.UserID)
	}
	var records []masterytypes.MasteryRecord
	if len(ids) > 0 {
		history, err := s.deps.Repos.MasteryRecords.ListByStudents(dbc, ids)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		for _, r := range history {
			if standardID == uuid.Nil || r.StandardID == standardID {
				records = append(records, *r)
			}
		}
	}

	seen := map[uuid.UUID]bool{}
	standardIDs := make([]uuid.UUID, 0)
	for _, r := range records {
		if !seen[r.StandardID] {
			seen[r.StandardID] = true
			standardIDs = append(standardIDs, r.StandardID)
		}
	}
	standards, err := s.standardsByID(dbc, standardIDs)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	matrix := mastery.BuildClassMatrix(classID, roster, records, standards)
	return &matrix, nil
}

// requireClassView admits admins, the system and teachers of the class.
func (s *masteryService) requireClassView(ctx context.Context, op string, caller auth.Caller, classID uuid.UUID, what string) error {
	if classID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing class id", nil)
	}
	if privileged(caller) {
		return nil
	}
	if caller.Role != auth.RoleTeacher {
		return errForbidden(what)
	}
	ok, err := s.access.teachesClass(ctx, caller.UserID, classID)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if !ok {
		return errForbidden("view this class")
	}
	return nil
}

func (s *masteryService) standardsByID(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]masterytypes.Standard, error) {
	out := make(map[uuid.UUID]masterytypes.Standard, len(ids))
	if len(ids) == 0 || s.deps.Repos.Standards == nil {
		return out, nil
	}
	rows, err := s.deps.Repos.Standards.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = *r
	}
	return out, nil
}
