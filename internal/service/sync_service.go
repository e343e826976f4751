package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
)

type syncRosterRepository interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	FindTeacherByEmail(ctx context.Context, schoolID, email string) (*models.Teacher, error)
	FindParentByPhone(ctx context.Context, schoolID, phone string) (*models.Parent, error)
	FindStudentByAdmission(ctx context.Context, schoolID, admissionNumber string) (*models.Student, error)
	InsertTeacherTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
	InsertParentTx(ctx context.Context, tx *sqlx.Tx, parent *models.Parent) error
	InsertStudentTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	UpdateTeacher(ctx context.Context, teacher *models.Teacher) error
	UpdateParent(ctx context.Context, parent *models.Parent) error
	UpdateStudent(ctx context.Context, student *models.Student) error
}

type counterAllocator interface {
	Allocate(ctx context.Context, tx *sqlx.Tx, schoolID, prefix string) (string, error)
}

// SyncTeacherInput is one teacher row from the upstream roster sheet.
// Rows without an email are skipped; email is the match key.
type SyncTeacherInput struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	CanTakeAttendance bool   `json:"can_take_attendance"`
	Active            *bool  `json:"active,omitempty"`
}

// SyncParentInput is one parent/household row. Rows without a single phone
// number are skipped since phones are the match key.
type SyncParentInput struct {
	FatherName     string `json:"father_name"`
	FatherPhone    string `json:"father_phone"`
	MotherName     string `json:"mother_name"`
	MotherPhone    string `json:"mother_phone"`
	GuardianName   string `json:"guardian_name"`
	GuardianPhone  string `json:"guardian_phone"`
	PrimaryContact string `json:"primary_contact"`
	Address        string `json:"address"`
	Active         *bool  `json:"active,omitempty"`
}

// SyncStudentInput is one student row. ParentPhone links the student to a
// previously synced household. Rows without an admission number are
// skipped; it is the match key.
type SyncStudentInput struct {
	AdmissionNumber string  `json:"admission_number"`
	Name            string  `json:"name"`
	Gender          string  `json:"gender"`
	Class           string  `json:"class"`
	Section         string  `json:"section"`
	BloodGroup      *string `json:"blood_group,omitempty"`
	BoardingType    *string `json:"boarding_type,omitempty"`
	AdmissionDate   string  `json:"admission_date"`
	AcademicYear    string  `json:"academic_year"`
	ParentPhone     string  `json:"parent_phone"`
	Active          *bool   `json:"active,omitempty"`
}

// SyncRequest is the bulk roster payload for one school.
type SyncRequest struct {
	Teachers []SyncTeacherInput `json:"teachers"`
	Parents  []SyncParentInput  `json:"parents"`
	Students []SyncStudentInput `json:"students"`
}

// SyncCounts reports created/updated/skipped totals for one entity kind.
type SyncCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncResult is the per-kind outcome of a sync run.
type SyncResult struct {
	Teachers SyncCounts `json:"teachers"`
	Parents  SyncCounts `json:"parents"`
	Students SyncCounts `json:"students"`
}

// SyncService reconciles an uploaded roster against the stored one.
// Match keys: teacher email, any parent phone, student admission number.
// Matches are updated in place, everything else is inserted with a freshly
// allocated sequential ID.
type SyncService struct {
	roster   syncRosterRepository
	counters counterAllocator
	logger   *zap.Logger
}

// NewSyncService constructs the service.
func NewSyncService(roster syncRosterRepository, counters counterAllocator, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{roster: roster, counters: counters, logger: logger}
}

// Run processes one SyncRequest for a school. Parents go first so students
// can link by phone, then teachers, then students. Rows missing their
// match key are skipped so repeated runs stay idempotent. Each insert
// allocates its ID and writes the row in a single transaction; updates
// never touch the stored FCM token.
func (s *SyncService) Run(ctx context.Context, schoolID string, req *SyncRequest) (*SyncResult, error) {
	if schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "school id is required")
	}

	result := &SyncResult{}

	for i := range req.Parents {
		if err := s.syncParent(ctx, schoolID, &req.Parents[i], result); err != nil {
			return nil, err
		}
	}
	for i := range req.Teachers {
		if err := s.syncTeacher(ctx, schoolID, &req.Teachers[i], result); err != nil {
			return nil, err
		}
	}
	for i := range req.Students {
		if err := s.syncStudent(ctx, schoolID, &req.Students[i], result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("school data sync completed",
		zap.String("school_id", schoolID),
		zap.Int("parents_created", result.Parents.Created),
		zap.Int("parents_updated", result.Parents.Updated),
		zap.Int("teachers_created", result.Teachers.Created),
		zap.Int("teachers_updated", result.Teachers.Updated),
		zap.Int("students_created", result.Students.Created),
		zap.Int("students_updated", result.Students.Updated),
		zap.Int("rows_skipped", result.Parents.Skipped+result.Teachers.Skipped+result.Students.Skipped),
	)
	return result, nil
}

func (s *SyncService) syncParent(ctx context.Context, schoolID string, in *SyncParentInput, result *SyncResult) error {
	// No phone means no match key: re-running the sync would insert the
	// same household again, so the row is dropped instead.
	if in.FatherPhone == "" && in.MotherPhone == "" && in.GuardianPhone == "" {
		s.logger.Warn("parent row has no phone, skipping",
			zap.String("school_id", schoolID),
			zap.String("father_name", in.FatherName),
		)
		result.Parents.Skipped++
		return nil
	}

	existing, err := s.findParentByAnyPhone(ctx, schoolID, in.FatherPhone, in.MotherPhone, in.GuardianPhone)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		existing.FatherName = in.FatherName
		existing.FatherPhone = in.FatherPhone
		existing.MotherName = in.MotherName
		existing.MotherPhone = in.MotherPhone
		existing.GuardianName = in.GuardianName
		existing.GuardianPhone = in.GuardianPhone
		existing.PrimaryContact = in.PrimaryContact
		existing.Address = in.Address
		if in.Active != nil {
			existing.Active = *in.Active
		}
		existing.UpdatedAt = now
		if err := s.roster.UpdateParent(ctx, existing); err != nil {
			return err
		}
		result.Parents.Updated++
		return nil
	}

	return s.insertWithID(ctx, schoolID, models.PrefixParent, func(tx *sqlx.Tx, id string) error {
		parent := &models.Parent{
			ParentID:       id,
			SchoolID:       schoolID,
			FatherName:     in.FatherName,
			FatherPhone:    in.FatherPhone,
			MotherName:     in.MotherName,
			MotherPhone:    in.MotherPhone,
			GuardianName:   in.GuardianName,
			GuardianPhone:  in.GuardianPhone,
			PrimaryContact: in.PrimaryContact,
			Address:        in.Address,
			Active:         activeOrDefault(in.Active),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.roster.InsertParentTx(ctx, tx, parent); err != nil {
			return err
		}
		result.Parents.Created++
		return nil
	})
}

func (s *SyncService) syncTeacher(ctx context.Context, schoolID string, in *SyncTeacherInput, result *SyncResult) error {
	if in.Email == "" {
		s.logger.Warn("teacher row has no email, skipping",
			zap.String("school_id", schoolID),
			zap.String("name", in.Name),
		)
		result.Teachers.Skipped++
		return nil
	}

	existing, err := s.roster.FindTeacherByEmail(ctx, schoolID, in.Email)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		existing.Name = in.Name
		existing.Phone = in.Phone
		existing.CanTakeAttendance = in.CanTakeAttendance
		if in.Active != nil {
			existing.Active = *in.Active
		}
		existing.UpdatedAt = now
		if err := s.roster.UpdateTeacher(ctx, existing); err != nil {
			return err
		}
		result.Teachers.Updated++
		return nil
	}

	return s.insertWithID(ctx, schoolID, models.PrefixTeacher, func(tx *sqlx.Tx, id string) error {
		teacher := &models.Teacher{
			TeacherID:         id,
			SchoolID:          schoolID,
			Name:              in.Name,
			Email:             in.Email,
			Phone:             in.Phone,
			CanTakeAttendance: in.CanTakeAttendance,
			Active:            activeOrDefault(in.Active),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.roster.InsertTeacherTx(ctx, tx, teacher); err != nil {
			return err
		}
		result.Teachers.Created++
		return nil
	})
}

func (s *SyncService) syncStudent(ctx context.Context, schoolID string, in *SyncStudentInput, result *SyncResult) error {
	if in.AdmissionNumber == "" {
		s.logger.Warn("student row has no admission number, skipping",
			zap.String("school_id", schoolID),
			zap.String("name", in.Name),
		)
		result.Students.Skipped++
		return nil
	}

	var parentID *string
	if in.ParentPhone != "" {
		parent, err := s.roster.FindParentByPhone(ctx, schoolID, in.ParentPhone)
		if err != nil {
			return err
		}
		if parent != nil {
			parentID = &parent.ParentID
		} else {
			s.logger.Warn("student references unknown parent phone",
				zap.String("school_id", schoolID),
				zap.String("admission_number", in.AdmissionNumber),
			)
		}
	}

	existing, err := s.roster.FindStudentByAdmission(ctx, schoolID, in.AdmissionNumber)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		existing.Name = in.Name
		existing.Gender = in.Gender
		existing.Class = in.Class
		existing.Section = in.Section
		existing.BloodGroup = in.BloodGroup
		existing.BoardingType = in.BoardingType
		existing.AdmissionDate = in.AdmissionDate
		existing.AcademicYear = in.AcademicYear
		if parentID != nil {
			existing.ParentID = parentID
		}
		if in.Active != nil {
			existing.Active = *in.Active
		}
		existing.UpdatedAt = now
		if err := s.roster.UpdateStudent(ctx, existing); err != nil {
			return err
		}
		result.Students.Updated++
		return nil
	}

	return s.insertWithID(ctx, schoolID, models.PrefixStudent, func(tx *sqlx.Tx, id string) error {
		student := &models.Student{
			StudentID:       id,
			SchoolID:        schoolID,
			AdmissionNumber: in.AdmissionNumber,
			Name:            in.Name,
			Gender:          in.Gender,
			Class:           in.Class,
			Section:         in.Section,
			BloodGroup:      in.BloodGroup,
			BoardingType:    in.BoardingType,
			AdmissionDate:   in.AdmissionDate,
			AcademicYear:    in.AcademicYear,
			ParentID:        parentID,
			Active:          activeOrDefault(in.Active),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.roster.InsertStudentTx(ctx, tx, student); err != nil {
			return err
		}
		result.Students.Created++
		return nil
	})
}

// insertWithID allocates the next sequential ID and runs the insert in one
// transaction, so an aborted insert never burns a number.
func (s *SyncService) insertWithID(ctx context.Context, schoolID, prefix string, insert func(tx *sqlx.Tx, id string) error) error {
	tx, err := s.roster.BeginTx(ctx)
	if err != nil {
		return err
	}

	id, err := s.counters.Allocate(ctx, tx, schoolID, prefix)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := insert(tx, id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// activeOrDefault reads an optional active flag; new rows default to active.
func activeOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func (s *SyncService) findParentByAnyPhone(ctx context.Context, schoolID string, phones ...string) (*models.Parent, error) {
	for _, phone := range phones {
		if phone == "" {
			continue
		}
		parent, err := s.roster.FindParentByPhone(ctx, schoolID, phone)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			return parent, nil
		}
	}
	return nil, nil
}
