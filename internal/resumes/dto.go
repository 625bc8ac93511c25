package resumes

import (
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

// Document is the whole resume as the editor sends it. Section order is list order.
type Document struct {
	Name               string  `json:"name" validate:"required,max=200"`
	Initials           *string `json:"initials,omitempty" validate:"omitempty,max=10"`
	Location           *string `json:"location,omitempty" validate:"omitempty,max=200"`
	LocationLink       *string `json:"locationLink,omitempty" validate:"omitempty,url"`
	About              *string `json:"about,omitempty" validate:"omitempty,max=2000"`
	Summary            *string `json:"summary,omitempty" validate:"omitempty,max=10000"`
	AvatarURL          *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	PersonalWebsiteURL *string `json:"personalWebsiteUrl,omitempty" validate:"omitempty,url"`

	Contact    *ContactInput    `json:"contact,omitempty"`
	Educations []EducationInput `json:"educations,omitempty" validate:"dive"`
	Works      []WorkInput      `json:"works,omitempty" validate:"dive"`
	Skills     []string         `json:"skills,omitempty" validate:"dive,required,max=100"`
	Projects   []ProjectInput   `json:"projects,omitempty" validate:"dive"`
}

type ContactInput struct {
	Email   *string       `json:"email,omitempty" validate:"omitempty,email"`
	Tel     *string       `json:"tel,omitempty" validate:"omitempty,max=50"`
	Socials []SocialInput `json:"socials,omitempty" validate:"dive"`
}

type SocialInput struct {
	Name string  `json:"name" validate:"required,max=100"`
	URL  string  `json:"url" validate:"required,url"`
	Icon *string `json:"icon,omitempty" validate:"omitempty,max=100"`
}

// Position fields are only read by section updates and adds. Nil keeps the current
// position on update and appends on add.
type EducationInput struct {
	School   string  `json:"school" validate:"required,max=200"`
	Degree   string  `json:"degree" validate:"required,max=200"`
	Start    *string `json:"start,omitempty" validate:"omitempty,max=50"`
	End      *string `json:"end,omitempty" validate:"omitempty,max=50"`
	Position *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

type WorkInput struct {
	Company     string   `json:"company" validate:"required,max=200"`
	Link        *string  `json:"link,omitempty" validate:"omitempty,url"`
	Title       string   `json:"title" validate:"required,max=200"`
	Logo        *string  `json:"logo,omitempty" validate:"omitempty,max=500"`
	Start       *string  `json:"start,omitempty" validate:"omitempty,max=50"`
	End         *string  `json:"end,omitempty" validate:"omitempty,max=50"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Tasks       []string `json:"tasks,omitempty" validate:"dive,required,max=1000"`
	Badges      []string `json:"badges,omitempty" validate:"dive,required,max=100"`
	Position    *int     `json:"position,omitempty" validate:"omitempty,min=0"`
}

type SkillInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Position *int   `json:"position,omitempty" validate:"omitempty,min=0"`
}

type ProjectInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Logo        *string    `json:"logo,omitempty" validate:"omitempty,max=500"`
	Techs       []string   `json:"techs,omitempty" validate:"dive,required,max=100"`
	Link        *LinkInput `json:"link,omitempty"`
	Position    *int       `json:"position,omitempty" validate:"omitempty,min=0"`
}

type LinkInput struct {
	Label *string `json:"label,omitempty" validate:"omitempty,max=200"`
	Href  string  `json:"href" validate:"required,url"`
}

// HeaderPatch changes only the header fields that are present.
type HeaderPatch struct {
	Name               *string `json:"name" validate:"omitnil,min=1,max=200"`
	Initials           *string `json:"initials" validate:"omitempty,max=10"`
	Location           *string `json:"location" validate:"omitempty,max=200"`
	LocationLink       *string `json:"locationLink" validate:"omitempty,url"`
	About              *string `json:"about" validate:"omitempty,max=2000"`
	Summary            *string `json:"summary" validate:"omitempty,max=10000"`
	AvatarURL          *string `json:"avatarUrl" validate:"omitempty,url"`
	PersonalWebsiteURL *string `json:"personalWebsiteUrl" validate:"omitempty,url"`
}

func (p HeaderPatch) data() store.Data {
	data := store.Data{}
	set := func(col string, v *string) {
		if v != nil {
			data[col] = *v
		}
	}
	set("name", p.Name)
	set("initials", p.Initials)
	set("location", p.Location)
	set("location_link", p.LocationLink)
	set("about", p.About)
	set("summary", p.Summary)
	set("avatar_url", p.AvatarURL)
	set("personal_website_url", p.PersonalWebsiteURL)
	return data
}

func (d Document) header(userID string) models.Resume {
	return models.Resume{
		UserID:             &userID,
		Name:               d.Name,
		Initials:           d.Initials,
		Location:           d.Location,
		LocationLink:       d.LocationLink,
		About:              d.About,
		Summary:            d.Summary,
		AvatarURL:          d.AvatarURL,
		PersonalWebsiteURL: d.PersonalWebsiteURL,
	}
}

// headerData overwrites every header column, clearing the ones the document leaves out.
func (d Document) headerData() store.Data {
	return store.Data{
		"name":                 d.Name,
		"initials":             store.Nullable(d.Initials),
		"location":             store.Nullable(d.Location),
		"location_link":        store.Nullable(d.LocationLink),
		"about":                store.Nullable(d.About),
		"summary":              store.Nullable(d.Summary),
		"avatar_url":           store.Nullable(d.AvatarURL),
		"personal_website_url": store.Nullable(d.PersonalWebsiteURL),
	}
}

func (in EducationInput) model(resumeID string, position int) models.Education {
	return models.Education{
		ResumeID: resumeID,
		School:   in.School,
		Degree:   in.Degree,
		Start:    in.Start,
		End:      in.End,
		Position: position,
	}
}

func (in EducationInput) data() store.Data {
	return withPosition(store.Data{
		"school": in.School,
		"degree": in.Degree,
		"start":  store.Nullable(in.Start),
		"end":    store.Nullable(in.End),
	}, in.Position)
}

func (in WorkInput) model(resumeID string, position int) models.Work {
	return models.Work{
		ResumeID:    resumeID,
		Company:     in.Company,
		Link:        in.Link,
		Title:       in.Title,
		Logo:        in.Logo,
		Start:       in.Start,
		End:         in.End,
		Description: in.Description,
		Position:    position,
	}
}

func (in WorkInput) data() store.Data {
	return withPosition(store.Data{
		"company":     in.Company,
		"link":        store.Nullable(in.Link),
		"title":       in.Title,
		"logo":        store.Nullable(in.Logo),
		"start":       store.Nullable(in.Start),
		"end":         store.Nullable(in.End),
		"description": store.Nullable(in.Description),
	}, in.Position)
}

func (in ProjectInput) model(resumeID string, position int) models.Project {
	return models.Project{
		ResumeID:    resumeID,
		Title:       in.Title,
		Description: in.Description,
		Logo:        in.Logo,
		Position:    position,
	}
}

func (in ProjectInput) data() store.Data {
	return withPosition(store.Data{
		"title":       in.Title,
		"description": store.Nullable(in.Description),
		"logo":        store.Nullable(in.Logo),
	}, in.Position)
}

func withPosition(data store.Data, pos *int) store.Data {
	if pos != nil {
		data["position"] = *pos
	}
	return data
}

// DocumentFromResume converts a loaded resume tree back into its editable form.
func DocumentFromResume(r models.Resume) Document {
	doc := Document{
		Name:               r.Name,
		Initials:           r.Initials,
		Location:           r.Location,
		LocationLink:       r.LocationLink,
		About:              r.About,
		Summary:            r.Summary,
		AvatarURL:          r.AvatarURL,
		PersonalWebsiteURL: r.PersonalWebsiteURL,
	}
	if r.Contact != nil {
		contact := &ContactInput{Email: r.Contact.Email, Tel: r.Contact.Tel}
		for _, s := range r.Contact.Socials {
			contact.Socials = append(contact.Socials, SocialInput{Name: s.Name, URL: s.URL, Icon: s.Icon})
		}
		doc.Contact = contact
	}
	for _, e := range r.Educations {
		doc.Educations = append(doc.Educations, EducationInput{School: e.School, Degree: e.Degree, Start: e.Start, End: e.End})
	}
	for _, w := range r.Works {
		in := WorkInput{
			Company:     w.Company,
			Link:        w.Link,
			Title:       w.Title,
			Logo:        w.Logo,
			Start:       w.Start,
			End:         w.End,
			Description: w.Description,
		}
		for _, t := range w.Tasks {
			in.Tasks = append(in.Tasks, t.Description)
		}
		for _, b := range w.Badges {
			in.Badges = append(in.Badges, b.Name)
		}
		doc.Works = append(doc.Works, in)
	}
	for _, s := range r.Skills {
		doc.Skills = append(doc.Skills, s.Name)
	}
	for _, p := range r.Projects {
		in := ProjectInput{Title: p.Title, Description: p.Description, Logo: p.Logo}
		for _, t := range p.Techs {
			in.Techs = append(in.Techs, t.Name)
		}
		if p.Link != nil {
			in.Link = &LinkInput{Label: p.Link.Label, Href: p.Link.Href}
		}
		doc.Projects = append(doc.Projects, in)
	}
	return doc
}
