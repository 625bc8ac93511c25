package resumes

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/qri-io/jsonschema"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/object"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

//go:embed resume.schema.json
var documentSchemaJSON []byte

// Service owns the resume aggregate of each user.
type Service struct {
	DB    *models.Client
	Store object.ObjectStore

	validate *validator.Validate
	schema   *jsonschema.Schema
	now      func() time.Time
}

// NewService wires the service. objects may be nil when export is not configured.
func NewService(db *models.Client, objects object.ObjectStore) *Service {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(documentSchemaJSON, rs); err != nil {
		panic(fmt.Sprintf("resumes: embedded schema: %v", err))
	}
	return &Service{
		DB:       db,
		Store:    objects,
		validate: newValidator(),
		schema:   rs,
		now:      time.Now,
	}
}

var byPosition = []store.Order{store.Asc("position")}

// treeIncludes loads every section of a resume in display order.
func treeIncludes() []store.Include {
	return []store.Include{
		{Relation: "contact", Include: []store.Include{{Relation: "socials", OrderBy: byPosition}}},
		{Relation: "educations", OrderBy: byPosition},
		{Relation: "works", OrderBy: byPosition, Include: []store.Include{
			{Relation: "tasks", OrderBy: byPosition},
			{Relation: "badges", OrderBy: byPosition},
		}},
		{Relation: "skills", OrderBy: byPosition},
		{Relation: "projects", OrderBy: byPosition, Include: []store.Include{
			{Relation: "techs", OrderBy: byPosition},
			store.With("link"),
		}},
	}
}

func (s *Service) ready() error {
	if s == nil || s.DB == nil {
		return errors.New("resumes service not configured")
	}
	return nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("user id is required")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Get loads the full resume tree owned by userID.
func (s *Service) Get(ctx context.Context, userID string) (models.Resume, error) {
	if err := s.ready(); err != nil {
		return models.Resume{}, err
	}
	if err := requireUser(userID); err != nil {
		return models.Resume{}, err
	}
	return loadTree(ctx, s.DB, store.Eq("user_id", userID))
}

// GetByID loads a resume tree for the shared read-only view.
func (s *Service) GetByID(ctx context.Context, id string) (models.Resume, error) {
	if err := s.ready(); err != nil {
		return models.Resume{}, err
	}
	if strings.TrimSpace(id) == "" {
		return models.Resume{}, invalid("resume id is required")
	}
	return loadTree(ctx, s.DB, store.Eq(store.ColumnID, id))
}

func loadTree(ctx context.Context, db *models.Client, where store.Filter) (models.Resume, error) {
	r, err := db.Resume.FindUnique(ctx, store.FindUniqueArgs{Where: where, Include: treeIncludes()})
	if err != nil {
		return models.Resume{}, notFound(err)
	}
	return r, nil
}

// Save creates or replaces the user's whole resume in one transaction.
func (s *Service) Save(ctx context.Context, userID string, doc Document) (models.Resume, error) {
	if err := s.ready(); err != nil {
		return models.Resume{}, err
	}
	if err := requireUser(userID); err != nil {
		return models.Resume{}, err
	}
	if err := s.check(doc); err != nil {
		return models.Resume{}, err
	}

	var out models.Resume
	err := s.DB.Tx(ctx, func(tx *models.Client) error {
		header, err := tx.Resume.Upsert(ctx, store.UpsertArgs[models.Resume]{
			Where:  store.Eq("user_id", userID),
			Create: doc.header(userID),
			Update: doc.headerData(),
		})
		if err != nil {
			return fmt.Errorf("upsert resume: %w", err)
		}
		if err := clearSections(ctx, tx, header.ID); err != nil {
			return err
		}
		if err := writeSections(ctx, tx, header.ID, doc); err != nil {
			return err
		}
		out, err = loadTree(ctx, tx, store.Eq(store.ColumnID, header.ID))
		return err
	})
	if err != nil {
		return models.Resume{}, err
	}
	telemetry.Info("resume.saved", map[string]any{
		"user_id":    userID,
		"resume_id":  out.ID,
		"educations": len(out.Educations),
		"works":      len(out.Works),
		"skills":     len(out.Skills),
		"projects":   len(out.Projects),
	})
	return out, nil
}

// clearSections removes every section row. Nested rows go with their parents.
func clearSections(ctx context.Context, tx *models.Client, resumeID string) error {
	owned := store.Eq("resume_id", resumeID)
	steps := []struct {
		name string
		run  func() (int64, error)
	}{
		{"contact", func() (int64, error) { return tx.Contact.DeleteMany(ctx, owned) }},
		{"educations", func() (int64, error) { return tx.Education.DeleteMany(ctx, owned) }},
		{"works", func() (int64, error) { return tx.Work.DeleteMany(ctx, owned) }},
		{"skills", func() (int64, error) { return tx.Skill.DeleteMany(ctx, owned) }},
		{"projects", func() (int64, error) { return tx.Project.DeleteMany(ctx, owned) }},
	}
	for _, step := range steps {
		if _, err := step.run(); err != nil {
			return fmt.Errorf("clear %s: %w", step.name, err)
		}
	}
	return nil
}

func writeSections(ctx context.Context, tx *models.Client, resumeID string, doc Document) error {
	if doc.Contact != nil {
		if _, err := writeContact(ctx, tx, resumeID, *doc.Contact); err != nil {
			return err
		}
	}

	educations := make([]models.Education, 0, len(doc.Educations))
	for i, in := range doc.Educations {
		educations = append(educations, in.model(resumeID, i))
	}
	if _, err := tx.Education.CreateMany(ctx, educations, false); err != nil {
		return fmt.Errorf("create educations: %w", err)
	}

	for i, in := range doc.Works {
		if _, err := createWork(ctx, tx, in.model(resumeID, i), in); err != nil {
			return err
		}
	}

	skills := make([]models.Skill, 0, len(doc.Skills))
	for i, name := range doc.Skills {
		skills = append(skills, models.Skill{ResumeID: resumeID, Name: name, Position: i})
	}
	if _, err := tx.Skill.CreateMany(ctx, skills, false); err != nil {
		return fmt.Errorf("create skills: %w", err)
	}

	for i, in := range doc.Projects {
		if _, err := createProject(ctx, tx, in.model(resumeID, i), in); err != nil {
			return err
		}
	}
	return nil
}

// UpdateHeader applies a partial update to the resume header.
func (s *Service) UpdateHeader(ctx context.Context, userID string, patch HeaderPatch) (models.Resume, error) {
	if err := s.ready(); err != nil {
		return models.Resume{}, err
	}
	if err := requireUser(userID); err != nil {
		return models.Resume{}, err
	}
	if err := s.check(patch); err != nil {
		return models.Resume{}, err
	}
	data := patch.data()
	if len(data) == 0 {
		return s.Get(ctx, userID)
	}
	_, err := s.DB.Resume.Update(ctx, store.UpdateArgs{Where: store.Eq("user_id", userID), Data: data})
	if err != nil {
		return models.Resume{}, notFound(err)
	}
	return s.Get(ctx, userID)
}

// Delete removes the user's resume and every section under it.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := requireUser(userID); err != nil {
		return err
	}
	r, err := s.DB.Resume.Delete(ctx, store.FindUniqueArgs{Where: store.Eq("user_id", userID)})
	if err != nil {
		return notFound(err)
	}
	telemetry.Info("resume.deleted", map[string]any{"user_id": userID, "resume_id": r.ID})
	return nil
}

func resumeID(ctx context.Context, db *models.Client, userID string) (string, error) {
	r, err := db.Resume.FindUnique(ctx, store.FindUniqueArgs{
		Where:  store.Eq("user_id", userID),
		Select: []string{store.ColumnID},
	})
	if err != nil {
		return "", notFound(err)
	}
	return r.ID, nil
}

// ExportResult locates an exported document in the object store.
type ExportResult struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Export writes the user's resume as a JSON document to the object store.
func (s *Service) Export(ctx context.Context, userID string) (ExportResult, error) {
	if err := s.ready(); err != nil {
		return ExportResult{}, err
	}
	if s.Store == nil {
		return ExportResult{}, errors.New("object store not configured")
	}
	r, err := s.Get(ctx, userID)
	if err != nil {
		return ExportResult{}, err
	}
	body, err := json.MarshalIndent(DocumentFromResume(r), "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode resume: %w", err)
	}
	key := object.ExportKey(userID, r.Name, s.now())
	n, err := s.Store.Put(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return ExportResult{}, fmt.Errorf("store export: %w", err)
	}
	telemetry.Info("resume.exported", map[string]any{"user_id": userID, "key": key, "size": n})
	return ExportResult{Key: key, Size: n}, nil
}

// Import validates raw JSON against the document schema and saves it.
func (s *Service) Import(ctx context.Context, userID string, raw []byte) (models.Resume, error) {
	if err := s.ready(); err != nil {
		return models.Resume{}, err
	}
	keyErrs, err := s.schema.ValidateBytes(ctx, raw)
	if err != nil {
		return models.Resume{}, invalid("body is not valid JSON")
	}
	if len(keyErrs) > 0 {
		issues := make([]string, 0, len(keyErrs))
		for _, ke := range keyErrs {
			path := ke.PropertyPath
			if path == "" {
				path = "/"
			}
			issues = append(issues, path+": "+ke.Message)
		}
		return models.Resume{}, invalid(issues...)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Resume{}, invalid("body does not decode as a resume")
	}
	return s.Save(ctx, userID, doc)
}
