package services

import (
	"fmt"
	"time"

	"authcore/internal/models"
)

// DirectoryService supplies the ID-sorted demo collection the pagination
// endpoints page over. Generation is deterministic so cursor positions are
// stable across requests and tests.
type DirectoryService interface {
	UsersSortedByID() []models.DirectoryUser
}

type directoryService struct {
	users []models.DirectoryUser
}

var (
	directoryFirstNames = [...]string{"Aiko", "Haruto", "Mei", "Sota", "Yuna", "Ren", "Hana", "Kaito", "Rin", "Daichi"}
	directoryLastNames  = [...]string{"Sato", "Suzuki", "Takahashi", "Tanaka", "Ito", "Watanabe", "Yamamoto", "Nakamura", "Kobayashi", "Kato"}
)

// NewDirectoryService builds a collection of count users with IDs 1..count,
// already sorted by ID.
func NewDirectoryService(count int) DirectoryService {
	base := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	users := make([]models.DirectoryUser, 0, count)
	for i := 1; i <= count; i++ {
		name := directoryFirstNames[(i-1)%len(directoryFirstNames)] + " " + directoryLastNames[((i-1)/len(directoryFirstNames))%len(directoryLastNames)]
		users = append(users, models.DirectoryUser{
			ID:        i,
			Name:      name,
			Email:     fmt.Sprintf("user%03d@example.com", i),
			CreatedAt: base.Add(time.Duration(i) * 7 * time.Hour).Format("2006-01-02 15:04:05"),
		})
	}
	return &directoryService{users: users}
}

func (s *directoryService) UsersSortedByID() []models.DirectoryUser {
	return s.users
}
