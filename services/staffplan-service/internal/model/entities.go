package model

import (
	"strings"
	"time"
)

// Entity is a row addressed by its numeric id.
type Entity interface {
	EntityID() int64
}

type Department struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func (d Department) EntityID() int64 { return d.ID }
func (d *Department) SetID(id int64) { d.ID = id }

func (d *Department) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
}

func (d Department) Validate() error {
	var v validator
	v.text("title", d.Title)
	return v.err()
}

type Project struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StartDate Date   `json:"startDate"`
	EndDate   *Date  `json:"endDate"`
}

func (p Project) EntityID() int64 { return p.ID }
func (p *Project) SetID(id int64) { p.ID = id }

func (p *Project) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	if p.EndDate != nil && p.EndDate.IsZero() {
		p.EndDate = nil
	}
}

func (p Project) Validate() error {
	var v validator
	v.text("title", p.Title)
	v.date("startDate", p.StartDate)
	if p.EndDate != nil && p.EndDate.Before(p.StartDate.Time) {
		v.add("endDate", "endDate must not be before startDate")
	}
	return v.err()
}

type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	JobTitle     string `json:"jobTitle"`
	DepartmentID int64  `json:"departmentId"`
}

func (u User) EntityID() int64 { return u.ID }
func (u *User) SetID(id int64) { u.ID = id }

func (u *User) Normalize() {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = strings.TrimSpace(u.Email)
	u.JobTitle = strings.TrimSpace(u.JobTitle)
}

func (u User) Validate() error {
	var v validator
	v.text("firstName", u.FirstName)
	v.text("lastName", u.LastName)
	v.email("email", u.Email)
	v.text("jobTitle", u.JobTitle)
	v.id("departmentId", u.DepartmentID)
	return v.err()
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ProjectPosition places a user on a project for a date range. A nil EndDate
// means the end is unknown.
type ProjectPosition struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"userId"`
	ProjectID     int64  `json:"projectId"`
	StartDate     Date   `json:"positionStartDate"`
	EndDate       *Date  `json:"positionEndDate"`
	PositionTitle string `json:"positionTitle"`
	Occupation    string `json:"occupation"`
}

func (p ProjectPosition) EntityID() int64 { return p.ID }
func (p *ProjectPosition) SetID(id int64) { p.ID = id }

func (p *ProjectPosition) Normalize() {
	p.PositionTitle = strings.TrimSpace(p.PositionTitle)
	p.Occupation = strings.TrimSpace(p.Occupation)
	if p.EndDate != nil && p.EndDate.IsZero() {
		p.EndDate = nil
	}
}

func (p ProjectPosition) Validate() error {
	var v validator
	v.id("userId", p.UserID)
	v.id("projectId", p.ProjectID)
	v.date("positionStartDate", p.StartDate)
	if p.EndDate != nil && p.EndDate.Before(p.StartDate.Time) {
		v.add("positionEndDate", "positionEndDate must not be before positionStartDate")
	}
	v.text("positionTitle", p.PositionTitle)
	v.text("occupation", p.Occupation)
	return v.err()
}

func (p ProjectPosition) PositionStartDate() time.Time { return p.StartDate.Time }
func (p ProjectPosition) PositionEndDate() *time.Time  { return p.EndDate.TimePtr() }

// ActiveOn reports whether the position has started and not yet ended on day.
// A position ending on day is no longer active.
func (p ProjectPosition) ActiveOn(day time.Time) bool {
	if p.StartDate.After(day) {
		return false
	}
	return p.EndDate == nil || p.EndDate.After(day)
}

// UserDetail is a user joined with its department title.
type UserDetail struct {
	User
	DepartmentTitle string
}

// PositionDetail is a position joined with its project title.
type PositionDetail struct {
	ProjectPosition
	ProjectTitle string
}
