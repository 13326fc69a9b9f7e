package persistence

import (
	"github.com/daybook-dev/daybook/domain/journal"
	"github.com/daybook-dev/daybook/domain/memory"
)

// embeddingMapper converts between memory.Embedding and EmbeddingModel.
type embeddingMapper struct{}

func (embeddingMapper) ToDomain(m EmbeddingModel) memory.Embedding {
	ref := memory.NewRef(journal.EntityType(m.EntityType), m.EntityID)
	return memory.RestoreEmbedding(m.ID, ref, []float64(m.Vector), m.ModelVersion, m.CreatedAt)
}

func (embeddingMapper) ToModel(e memory.Embedding) EmbeddingModel {
	return EmbeddingModel{
		ID:           e.ID(),
		EntityType:   e.EntityType().String(),
		EntityID:     e.EntityID(),
		Vector:       Float64Slice(e.Vector()),
		ModelVersion: e.ModelVersion(),
		CreatedAt:    e.CreatedAt(),
	}
}

// messageMapper converts between journal.Message and MessageModel.
type messageMapper struct{}

func (messageMapper) ToDomain(m MessageModel) journal.Message {
	return journal.RestoreMessage(m.ID, m.Day, m.Text, m.Deleted, m.CreatedAt)
}

func (messageMapper) ToModel(m journal.Message) MessageModel {
	return MessageModel{
		ID:        m.ID(),
		Day:       m.Day(),
		Text:      m.Text(),
		Deleted:   m.Deleted(),
		CreatedAt: m.CreatedAt(),
	}
}

// noteMapper converts between journal.Note and NoteModel.
type noteMapper struct{}

func (noteMapper) ToDomain(m NoteModel) journal.Note {
	return journal.RestoreNote(m.ID, m.Day, m.Title, m.Body, m.Deleted, m.CreatedAt)
}

func (noteMapper) ToModel(n journal.Note) NoteModel {
	return NoteModel{
		ID:        n.ID(),
		Day:       n.Day(),
		Title:     n.Title(),
		Body:      n.Body(),
		Deleted:   n.Deleted(),
		CreatedAt: n.CreatedAt(),
	}
}
