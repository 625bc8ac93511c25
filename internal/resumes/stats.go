package resumes

import (
	"context"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

// Stats summarises a resume for the editor sidebar.
type Stats struct {
	Educations     int64          `json:"educations"`
	Works          int64          `json:"works"`
	Tasks          int64          `json:"tasks"`
	Skills         int64          `json:"skills"`
	Projects       int64          `json:"projects"`
	Socials        int64          `json:"socials"`
	FirstWorkStart *string        `json:"firstWorkStart"`
	LastWorkStart  *string        `json:"lastWorkStart"`
	Companies      []CompanyCount `json:"companies"`
}

// CompanyCount is the number of work entries held at one company.
type CompanyCount struct {
	Company string `json:"company"`
	Roles   int64  `json:"roles"`
}

// Stats counts the sections of the user's resume.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if err := s.ready(); err != nil {
		return Stats{}, err
	}
	if err := requireUser(userID); err != nil {
		return Stats{}, err
	}
	db := s.DB
	rid, err := resumeID(ctx, db, userID)
	if err != nil {
		return Stats{}, err
	}
	owned := store.Eq("resume_id", rid)

	var out Stats
	counts := []struct {
		dst *int64
		run func() (int64, error)
	}{
		{&out.Educations, func() (int64, error) { return db.Education.Count(ctx, store.CountArgs{Where: owned}) }},
		{&out.Skills, func() (int64, error) { return db.Skill.Count(ctx, store.CountArgs{Where: owned}) }},
		{&out.Projects, func() (int64, error) { return db.Project.Count(ctx, store.CountArgs{Where: owned}) }},
		{&out.Tasks, func() (int64, error) {
			return db.WorkTasks.Count(ctx, store.CountArgs{Where: store.Is("work", owned)})
		}},
		{&out.Socials, func() (int64, error) {
			return db.Social.Count(ctx, store.CountArgs{Where: store.Is("contact", owned)})
		}},
	}
	for _, c := range counts {
		n, err := c.run()
		if err != nil {
			return Stats{}, err
		}
		*c.dst = n
	}

	agg, err := db.Work.Aggregate(ctx, store.AggregateArgs{
		Where: owned,
		Count: []string{store.All},
		Min:   []string{"start"},
		Max:   []string{"start"},
	})
	if err != nil {
		return Stats{}, err
	}
	out.Works = agg.CountOf(store.All)
	out.FirstWorkStart = stringValue(agg.Min["start"])
	out.LastWorkStart = stringValue(agg.Max["start"])

	out.Companies, err = companyCounts(ctx, db, owned)
	if err != nil {
		return Stats{}, err
	}
	return out, nil
}

func companyCounts(ctx context.Context, db *models.Client, owned store.Filter) ([]CompanyCount, error) {
	groups, err := db.Work.GroupBy(ctx, store.GroupByArgs{
		By:    []string{"company"},
		Where: owned,
		Count: []string{store.All},
		OrderBy: []store.GroupOrder{
			{Agg: store.AggCount, Field: store.All, Desc: true},
			{Field: "company"},
		},
	})
	if err != nil {
		return nil, err
	}
	out := make([]CompanyCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, CompanyCount{Company: g.Keys.String("company"), Roles: g.CountOf(store.All)})
	}
	return out, nil
}

func stringValue(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
