package repository

import (
	"context"

	"kitabu/internal/domain/validator"
	"kitabu/internal/infra"
	"kitabu/internal/infra/db"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
)

type ValidatorRepository struct {
	dbtx     db.DBTX
	registry *validator.Registry
}

func NewValidatorRepository(dbtx db.DBTX, registry *validator.Registry) shared.ValidatorRepository {
	return &ValidatorRepository{dbtx: dbtx, registry: registry}
}

func (r *ValidatorRepository) Create(ctx context.Context, id uuid.UUID, kind validator.Kind, params []byte, applyToAll bool) error {
	_, err := r.dbtx.Exec(ctx, `
		INSERT INTO validators (id, kind, params, apply_to_all, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, string(kind), params, applyToAll,
	)
	if err != nil {
		return classifyPgError(err, "failed to create validator")
	}
	return nil
}

func (r *ValidatorRepository) Attach(ctx context.Context, subjectID, validatorID uuid.UUID) error {
	_, err := r.dbtx.Exec(ctx, `
		INSERT INTO subject_validators (subject_id, validator_id, created_at)
		VALUES ($1, $2, now())`,
		subjectID, validatorID,
	)
	if err != nil {
		return classifyPgError(err, "failed to attach validator")
	}
	return nil
}

// ChainForSubject decodes the subject's attached validators followed by the
// apply-to-all ones, each in creation order.
func (r *ValidatorRepository) ChainForSubject(ctx context.Context, subjectID uuid.UUID) (validator.Chain, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT v.kind, v.params
		FROM validators v
		LEFT JOIN subject_validators sv
		  ON sv.validator_id = v.id AND sv.subject_id = $1
		WHERE sv.subject_id IS NOT NULL OR v.apply_to_all
		ORDER BY (sv.subject_id IS NULL), v.created_at`,
		subjectID,
	)
	if err != nil {
		return validator.Chain{}, infra.WrapRepoErr(infra.KindDBFailure, "failed to query validators", err)
	}
	defer rows.Close()

	var rules []validator.Rule
	for rows.Next() {
		var (
			kind   string
			params []byte
		)
		if err := rows.Scan(&kind, &params); err != nil {
			return validator.Chain{}, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan validator", err)
		}

		rule, err := validator.Decode(validator.Kind(kind), params, r.registry)
		if err != nil {
			return validator.Chain{}, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return validator.Chain{}, infra.WrapRepoErr(infra.KindDBFailure, "failed to read validators", err)
	}
	return validator.NewChain(rules...), nil
}
