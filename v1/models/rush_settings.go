package models

// RushSettingsID is the primary key of the singleton settings row
const RushSettingsID = 1

// RushSettings holds the organization-wide recruitment phase
type RushSettings struct {
	ID           int    `gorm:"primarykey;column:id" json:"id"`
	CurrentStage string `gorm:"column:current_stage;not null;default:OPEN" json:"currentStage"`
	BaseModel
}

// TableName sets the table name for GORM
func (RushSettings) TableName() string {
	return "rush_settings"
}

// Stage returns the current stage, treating an unset value as OPEN
func (s *RushSettings) Stage() RushStage {
	if s == nil || s.CurrentStage == "" {
		return StageOpen
	}
	return RushStage(s.CurrentStage)
}
