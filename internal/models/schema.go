package models

import "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"

// Model names.
const (
	ModelUser        = "User"
	ModelResume      = "Resume"
	ModelContact     = "Contact"
	ModelSocial      = "Social"
	ModelEducation   = "Education"
	ModelWork        = "Work"
	ModelWorkTasks   = "WorkTasks"
	ModelWorkBadge   = "WorkBadge"
	ModelSkill       = "Skill"
	ModelProject     = "Project"
	ModelProjectTech = "ProjectTech"
	ModelProjectLink = "ProjectLink"
)

func withBase(fields ...store.Field) []store.Field {
	out := make([]store.Field, 0, len(fields)+3)
	out = append(out, store.Field{Name: store.ColumnID, Kind: store.KindString})
	out = append(out, fields...)
	return append(out,
		store.Field{Name: store.ColumnCreatedAt, Kind: store.KindTime},
		store.Field{Name: store.ColumnUpdatedAt, Kind: store.KindTime},
	)
}

func text(name string) store.Field { return store.Field{Name: name, Kind: store.KindString} }

func optText(name string) store.Field {
	return store.Field{Name: name, Kind: store.KindString, Nullable: true}
}

func position() store.Field {
	return store.Field{Name: "position", Kind: store.KindInt, Default: 0}
}

func belongsTo(name, target, fk string, action store.Action) store.Relation {
	return store.Relation{Name: name, Kind: store.BelongsTo, Target: target, Local: fk, Foreign: store.ColumnID, OnDelete: action}
}

func hasMany(name, target, fk string) store.Relation {
	return store.Relation{Name: name, Kind: store.HasMany, Target: target, Local: store.ColumnID, Foreign: fk}
}

func hasOne(name, target, fk string) store.Relation {
	return store.Relation{Name: name, Kind: store.HasOne, Target: target, Local: store.ColumnID, Foreign: fk}
}

// NewSchema describes the resume-builder tables.
func NewSchema() *store.Schema {
	return store.MustSchema(
		&store.Model{
			Name:  ModelUser,
			Table: "users",
			Fields: withBase(
				store.Field{Name: "email", Kind: store.KindString, Unique: true},
				optText("name"),
			),
			Relations: []store.Relation{hasOne("resume", ModelResume, "user_id")},
		},
		&store.Model{
			Name:  ModelResume,
			Table: "resumes",
			Fields: withBase(
				store.Field{Name: "user_id", Kind: store.KindString, Nullable: true, Unique: true},
				text("name"),
				optText("initials"),
				optText("location"),
				optText("location_link"),
				optText("about"),
				optText("summary"),
				optText("avatar_url"),
				optText("personal_website_url"),
			),
			Relations: []store.Relation{
				belongsTo("user", ModelUser, "user_id", store.SetNull),
				hasOne("contact", ModelContact, "resume_id"),
				hasMany("educations", ModelEducation, "resume_id"),
				hasMany("works", ModelWork, "resume_id"),
				hasMany("skills", ModelSkill, "resume_id"),
				hasMany("projects", ModelProject, "resume_id"),
			},
		},
		&store.Model{
			Name:  ModelContact,
			Table: "contacts",
			Fields: withBase(
				store.Field{Name: "resume_id", Kind: store.KindString, Unique: true},
				optText("email"),
				optText("tel"),
			),
			Relations: []store.Relation{
				belongsTo("resume", ModelResume, "resume_id", store.Cascade),
				hasMany("socials", ModelSocial, "contact_id"),
			},
		},
		&store.Model{
			Name:      ModelSocial,
			Table:     "socials",
			Fields:    withBase(text("contact_id"), text("name"), text("url"), optText("icon"), position()),
			Relations: []store.Relation{belongsTo("contact", ModelContact, "contact_id", store.Cascade)},
		},
		&store.Model{
			Name:      ModelEducation,
			Table:     "educations",
			Fields:    withBase(text("resume_id"), text("school"), text("degree"), optText("start"), optText("end"), position()),
			Relations: []store.Relation{belongsTo("resume", ModelResume, "resume_id", store.Cascade)},
		},
		&store.Model{
			Name:  ModelWork,
			Table: "works",
			Fields: withBase(
				text("resume_id"),
				text("company"),
				optText("link"),
				text("title"),
				optText("logo"),
				optText("start"),
				optText("end"),
				optText("description"),
				position(),
			),
			Relations: []store.Relation{
				belongsTo("resume", ModelResume, "resume_id", store.Cascade),
				hasMany("tasks", ModelWorkTasks, "work_id"),
				hasMany("badges", ModelWorkBadge, "work_id"),
			},
		},
		&store.Model{
			Name:      ModelWorkTasks,
			Table:     "work_tasks",
			Fields:    withBase(text("work_id"), text("description"), position()),
			Relations: []store.Relation{belongsTo("work", ModelWork, "work_id", store.Cascade)},
		},
		&store.Model{
			Name:      ModelWorkBadge,
			Table:     "work_badges",
			Fields:    withBase(text("work_id"), text("name"), position()),
			Relations: []store.Relation{belongsTo("work", ModelWork, "work_id", store.Cascade)},
		},
		&store.Model{
			Name:      ModelSkill,
			Table:     "skills",
			Fields:    withBase(text("resume_id"), text("name"), position()),
			Relations: []store.Relation{belongsTo("resume", ModelResume, "resume_id", store.Cascade)},
		},
		&store.Model{
			Name:  ModelProject,
			Table: "projects",
			Fields: withBase(text("resume_id"), text("title"), optText("description"), optText("logo"), position()),
			Relations: []store.Relation{
				belongsTo("resume", ModelResume, "resume_id", store.Cascade),
				hasMany("techs", ModelProjectTech, "project_id"),
				hasOne("link", ModelProjectLink, "project_id"),
			},
		},
		&store.Model{
			Name:      ModelProjectTech,
			Table:     "project_techs",
			Fields:    withBase(text("project_id"), text("name"), position()),
			Relations: []store.Relation{belongsTo("project", ModelProject, "project_id", store.Cascade)},
		},
		&store.Model{
			Name:  ModelProjectLink,
			Table: "project_links",
			Fields: withBase(
				store.Field{Name: "project_id", Kind: store.KindString, Unique: true},
				optText("label"),
				text("href"),
			),
			Relations: []store.Relation{belongsTo("project", ModelProject, "project_id", store.Cascade)},
		},
	)
}
