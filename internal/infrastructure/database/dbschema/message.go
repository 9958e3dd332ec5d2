package dbschema

import (
	"gorm.io/datatypes"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
)

// Message represents the database schema for messages.
type Message struct {
	BaseModel
	PublicID  string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	ThreadID  uint    `gorm:"index:idx_messages_thread_created;not null"`
	Thread    Thread  `gorm:"foreignKey:ThreadID"`
	Role      string  `gorm:"type:varchar(20);not null"`
	Content   string  `gorm:"type:text;not null;default:''"`
	Reasoning string  `gorm:"type:text;not null;default:''"`
	Status    string  `gorm:"type:varchar(20);not null"`
	Error     *string `gorm:"type:text"`

	// Model holds the frozen model snapshot for assistant messages.
	Model *datatypes.JSONType[message.ModelSnapshot] `gorm:"type:jsonb"`
}

// NewSchemaMessage creates a database schema from a domain message.
func NewSchemaMessage(m *message.Message) *Message {
	var model *datatypes.JSONType[message.ModelSnapshot]
	if m.Model != nil {
		snapshot := datatypes.NewJSONType(*m.Model)
		model = &snapshot
	}

	return &Message{
		BaseModel: BaseModel{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PublicID:  m.PublicID,
		ThreadID:  m.ThreadID,
		Role:      string(m.Role),
		Content:   m.Content,
		Reasoning: m.Reasoning,
		Status:    string(m.Status),
		Error:     m.Error,
		Model:     model,
	}
}

// EtoD converts the database schema to a domain message.
func (m *Message) EtoD() *message.Message {
	var model *message.ModelSnapshot
	if m.Model != nil {
		snapshot := m.Model.Data()
		model = &snapshot
	}

	return &message.Message{
		ID:        m.ID,
		PublicID:  m.PublicID,
		ThreadID:  m.ThreadID,
		Role:      message.Role(m.Role),
		Content:   m.Content,
		Reasoning: m.Reasoning,
		Status:    message.Status(m.Status),
		Error:     m.Error,
		Model:     model,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
