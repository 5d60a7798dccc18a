package dto

import (
	"time"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/service"
)

type ScheduleEntry struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Reminder bool   `json:"reminder"`
}

type Group struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Book      string          `json:"book"`
	Owner     string          `json:"owner"`
	Members   []string        `json:"members"`
	Schedule  []ScheduleEntry `json:"schedule"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func GroupFromModel(g *models.ReadingGroup) Group {
	schedule := make([]ScheduleEntry, 0, len(g.Schedule))
	for _, e := range g.Schedule {
		schedule = append(schedule, ScheduleEntry(e))
	}

	members := g.Members
	if members == nil {
		members = []string{}
	}

	return Group{
		ID:        g.ID,
		Name:      g.Name,
		Book:      g.BookID,
		Owner:     g.OwnerID,
		Members:   members,
		Schedule:  schedule,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func GroupsFromModel(gs []models.ReadingGroup) []Group {
	out := make([]Group, 0, len(gs))
	for i := range gs {
		out = append(out, GroupFromModel(&gs[i]))
	}

	return out
}

type CreateGroupRequest struct {
	Name     string          `json:"name"`
	Book     string          `json:"book"`
	Schedule []ScheduleEntry `json:"schedule,omitempty"`
}

func (m CreateGroupRequest) ToInput() service.CreateGroupInput {
	schedule := make([]service.ScheduleInput, 0, len(m.Schedule))
	for _, e := range m.Schedule {
		schedule = append(schedule, service.ScheduleInput(e))
	}

	return service.CreateGroupInput{Name: m.Name, BookID: m.Book, Schedule: schedule}
}
