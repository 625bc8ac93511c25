package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Resume *Resume `json:"resume,omitempty"`
}

type Resume struct {
	ID                 string    `json:"id"`
	UserID             *string   `json:"userId"`
	Name               string    `json:"name"`
	Initials           *string   `json:"initials"`
	Location           *string   `json:"location"`
	LocationLink       *string   `json:"locationLink"`
	About              *string   `json:"about"`
	Summary            *string   `json:"summary"`
	AvatarURL          *string   `json:"avatarUrl"`
	PersonalWebsiteURL *string   `json:"personalWebsiteUrl"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	User       *User       `json:"user,omitempty"`
	Contact    *Contact    `json:"contact,omitempty"`
	Educations []Education `json:"educations,omitempty"`
	Works      []Work      `json:"works,omitempty"`
	Skills     []Skill     `json:"skills,omitempty"`
	Projects   []Project   `json:"projects,omitempty"`
}

type Contact struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"resumeId"`
	Email     *string   `json:"email"`
	Tel       *string   `json:"tel"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Socials []Social `json:"socials,omitempty"`
}

type Social struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contactId"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Icon      *string   `json:"icon"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Education struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"resumeId"`
	School    string    `json:"school"`
	Degree    string    `json:"degree"`
	Start     *string   `json:"start"`
	End       *string   `json:"end"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Work struct {
	ID          string    `json:"id"`
	ResumeID    string    `json:"resumeId"`
	Company     string    `json:"company"`
	Link        *string   `json:"link"`
	Title       string    `json:"title"`
	Logo        *string   `json:"logo"`
	Start       *string   `json:"start"`
	End         *string   `json:"end"`
	Description *string   `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Tasks  []WorkTasks `json:"tasks,omitempty"`
	Badges []WorkBadge `json:"badges,omitempty"`
}

// WorkTasks is one bullet point of a work entry.
type WorkTasks struct {
	ID          string    `json:"id"`
	WorkID      string    `json:"workId"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type WorkBadge struct {
	ID        string    `json:"id"`
	WorkID    string    `json:"workId"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Skill struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"resumeId"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Project struct {
	ID          string    `json:"id"`
	ResumeID    string    `json:"resumeId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Logo        *string   `json:"logo"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Techs []ProjectTech `json:"techs,omitempty"`
	Link  *ProjectLink  `json:"link,omitempty"`
}

type ProjectTech struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProjectLink struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Label     *string   `json:"label"`
	Href      string    `json:"href"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
