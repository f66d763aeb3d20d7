package mastery

import (
	"sort"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

type MatrixCell struct {
	StandardID          uuid.UUID `json:"standard_id"`
	StandardCode        string    `json:"standard_code"`
	StandardDescription string    `json:"standard_description"`
	Level               string    `json:"level"`
	Score               int       `json:"score"`
	Status              string    `json:"status"`
	AssessedAt          time.Time `json:"assessed_at"`
}

type MatrixRow struct {
	StudentID   uuid.UUID    `json:"student_id"`
	StudentName string       `json:"student_name"`
	Standards   []MatrixCell `json:"standards"`
}

// ClassMatrix is the latest mastery of every student in a class against every standard
// any of them has been assessed on.
type ClassMatrix struct {
	ClassID   uuid.UUID        `json:"class_id"`
	Students  []MatrixRow      `json:"students"`
	Standards []types.Standard `json:"standards"`
}

// BuildClassMatrix keeps one row per class member, in member order, including members with no
// records. history must be newest first; cells and the standards list are ordered by code.
func BuildClassMatrix(classID uuid.UUID, members []types.ClassMember, history []types.MasteryRecord, standards map[uuid.UUID]types.Standard) ClassMatrix {
	rows := make([]MatrixRow, 0, len(members))
	rowOf := make(map[uuid.UUID]int, len(members))
	for _, m := range members {
		if _, dup := rowOf[m.UserID]; dup {
			continue
		}
		name := m.Name
		if name == "" {
			name = "Unknown"
		}
		rowOf[m.UserID] = len(rows)
		rows = append(rows, MatrixRow{StudentID: m.UserID, StudentName: name, Standards: []MatrixCell{}})
	}

	used := map[uuid.UUID]types.Standard{}
	for _, r := range LatestPerStudentStandard(history) {
		i, ok := rowOf[r.StudentID]
		if !ok {
			continue
		}
		std, known := standards[r.StandardID]
		if !known {
			std = types.Standard{ID: r.StandardID, Code: "Unknown"}
		}
		used[r.StandardID] = std
		rows[i].Standards = append(rows[i].Standards, MatrixCell{
			StandardID:          r.StandardID,
			StandardCode:        std.Code,
			StandardDescription: std.Description,
			Level:               r.Level,
			Score:               r.Score,
			Status:              TrafficLight(r.Level),
			AssessedAt:          r.AssessedAt,
		})
	}
	for i := range rows {
		cells := rows[i].Standards
		sort.SliceStable(cells, func(a, b int) bool { return cells[a].StandardCode < cells[b].StandardCode })
	}

	list := make([]types.Standard, 0, len(used))
	for _, s := range used {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Code != list[j].Code {
			return list[i].Code < list[j].Code
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return ClassMatrix{ClassID: classID, Students: rows, Standards: list}
}
