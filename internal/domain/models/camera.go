package models

type Group struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required"`
}

type Camera struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name" validate:"required"`
	IP      string `json:"ip" db:"ip" validate:"required"`
	GroupID int64  `json:"groupId" db:"group_id" validate:"required"`
}
