package models

import "time"

// ScheduleEntry — регулярная встреча группы.
type ScheduleEntry struct {
	// Day — день недели в нижнем регистре (monday..sunday).
	Day string `bson:"day"`
	// Time — время встречи в формате HH:MM.
	Time     string `bson:"time"`
	Reminder bool   `bson:"reminder"`
}

// ReadingGroup — группа совместного чтения одной книги.
// Владелец всегда входит в Members.
type ReadingGroup struct {
	ID        string          `bson:"_id"`
	Name      string          `bson:"name"`
	BookID    string          `bson:"book"`
	OwnerID   string          `bson:"owner"`
	Members   []string        `bson:"members"`
	Schedule  []ScheduleEntry `bson:"schedule"`
	CreatedAt time.Time       `bson:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

// HasMember сообщает, состоит ли пользователь в группе.
func (g *ReadingGroup) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}

	return false
}
