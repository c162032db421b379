package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
)

var ErrMalformedRef = errors.New("malformed user reference")

// CollaboratorDelta - результат сверки текущего набора соавторов с
// желаемым списком клиента
type CollaboratorDelta struct {
	Kept    []uuid.UUID // есть и там, и там
	Added   []uuid.UUID // появились в желаемом
	Removed []uuid.UUID // выпали из желаемого
}

// Result - новый набор соавторов задачи: kept ∪ added, то есть ровно
// провалидированный желаемый список без дублей
func (d CollaboratorDelta) Result() []uuid.UUID {
	result := make([]uuid.UUID, 0, len(d.Kept)+len(d.Added))
	result = append(result, d.Kept...)
	result = append(result, d.Added...)
	return result
}

// ReconcileCollaborators - чистая функция без побочных эффектов.
// Семантика full-replace: кого нет в desired, тот выбывает.
// Один кривой идентификатор валит всю сверку целиком
func ReconcileCollaborators(current []uuid.UUID, desired []model.UserRef) (CollaboratorDelta, error) {
	desiredSet := make(map[uuid.UUID]struct{}, len(desired))
	desiredIDs := make([]uuid.UUID, 0, len(desired))
	for _, ref := range desired {
		id, err := ref.Parse()
		if err != nil {
			return CollaboratorDelta{}, fmt.Errorf("%w: %q", ErrMalformedRef, ref.ID)
		}
		if _, ok := desiredSet[id]; ok {
			continue // дубли в запросе схлопываем
		}
		desiredSet[id] = struct{}{}
		desiredIDs = append(desiredIDs, id)
	}

	currentSet := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}

	var delta CollaboratorDelta
	for _, id := range current {
		if _, ok := desiredSet[id]; ok {
			delta.Kept = append(delta.Kept, id)
		} else {
			delta.Removed = append(delta.Removed, id)
		}
	}
	for _, id := range desiredIDs {
		if _, ok := currentSet[id]; !ok {
			delta.Added = append(delta.Added, id)
		}
	}
	return delta, nil
}
