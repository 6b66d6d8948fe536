package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
)

// RepointedRelationship records one endpoint of a relationship rewritten from
// a loser to its survivor. A relationship with losers on both ends yields two
// entries, one per endpoint.
type RepointedRelationship struct {
	RelationshipID string `json:"relationshipId"`
	OldEntityID    string `json:"oldEntityId"`
	NewEntityID    string `json:"newEntityId"`
}

// GroupReport describes the outcome (planned or applied) for one group of
// identity-key duplicates.
type GroupReport struct {
	SurvivorID             string                  `json:"survivorId"`
	MergedLoserIDs         []string                `json:"mergedLoserIds"`
	MergedProperties       map[string]any          `json:"mergedProperties,omitempty"`
	RelationshipsRepointed []RepointedRelationship `json:"relationshipsRepointed"`
	RelationshipsDropped   []string                `json:"relationshipsDropped"`
}

// DedupeResult is the per-group report for a deduplication run. In dry-run
// mode it is a plan; otherwise it records what was applied.
type DedupeResult struct {
	DryRun bool          `json:"dryRun"`
	Groups []GroupReport `json:"groups"`
}

// DedupeService finds groups of entities sharing an identity key, merges each
// group into one survivor, re-points relationships off the losers, and
// deletes them. With dryRun it computes and reports the plan without writing.
type DedupeService struct {
	store ports.GraphStore
	locks *ProjectLocker
}

// NewDedupeService creates a new DedupeService.
func NewDedupeService(store ports.GraphStore, locks *ProjectLocker) *DedupeService {
	return &DedupeService{store: store, locks: locks}
}

// groupPlan carries the computed writes for one duplicate group.
type groupPlan struct {
	report   GroupReport
	survivor entities.Entity
	losers   []entities.Entity
	rewrites []entities.Relationship
}

// Deduplicate merges identity-key duplicates in a project, optionally limited
// to one entity type. The survivor of each group is the member with the
// earliest creation time (ties by smallest id). Merged properties keep every
// non-empty survivor value; among losers the newest value wins. Relationships
// incident to losers are rewritten to the survivor, unless the rewrite would
// duplicate a relationship already attached to it, in which case the
// duplicate is dropped.
func (s *DedupeService) Deduplicate(ctx context.Context, project, entityType string, dryRun bool) (*DedupeResult, error) {
	release, err := s.locks.Acquire(ctx, project)
	if err != nil {
		return nil, err
	}
	defer release()

	all, err := s.store.ListEntities(ctx, project, entityType)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	groups := make(map[entities.IdentityKey][]entities.Entity)
	for i := range all {
		key := all[i].Identity()
		groups[key] = append(groups[key], all[i])
	}

	// Survivor election is a total order, so the outcome is independent of
	// input order: earliest CreatedAt first, then smallest id.
	var duplicates [][]entities.Entity
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
				return members[i].CreatedAt.Before(members[j].CreatedAt)
			}
			return members[i].ID < members[j].ID
		})
		duplicates = append(duplicates, members)
	}
	sort.Slice(duplicates, func(i, j int) bool {
		return duplicates[i][0].ID < duplicates[j][0].ID
	})

	// Endpoint rewrites use the global loser->survivor map so a relationship
	// spanning two groups is fixed at both ends in one pass.
	survivorOf := make(map[string]string)
	for _, members := range duplicates {
		for _, loser := range members[1:] {
			survivorOf[loser.ID] = members[0].ID
		}
	}

	// rewriteSigs spans the whole run: two relationships owned by losers of
	// different groups may rewrite to the same edge, and only one survives.
	plans := make([]groupPlan, 0, len(duplicates))
	seenRels := make(map[string]bool)
	rewriteSigs := make(map[string]bool)
	for _, members := range duplicates {
		plan, err := s.planGroup(ctx, project, members, survivorOf, seenRels, rewriteSigs)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	result := &DedupeResult{DryRun: dryRun, Groups: make([]GroupReport, 0, len(plans))}
	for i := range plans {
		result.Groups = append(result.Groups, plans[i].report)
	}

	if dryRun {
		return result, nil
	}

	removed := 0
	for i := range plans {
		if err := s.applyGroup(ctx, project, &plans[i]); err != nil {
			return nil, err
		}
		removed += len(plans[i].losers)
	}

	_ = s.store.LogAction(ctx, project, "deduplicate", map[string]any{
		"groups":           len(plans),
		"entities_removed": removed,
	})

	return result, nil
}

// planGroup computes the merged properties and relationship rewrites for one
// group without writing anything. rewriteSigs accumulates rewritten-edge
// signatures across groups.
func (s *DedupeService) planGroup(ctx context.Context, project string, members []entities.Entity, survivorOf map[string]string, seenRels, rewriteSigs map[string]bool) (groupPlan, error) {
	survivor := members[0]
	losers := members[1:]

	// Survivor values win over all losers; among losers, folding in ascending
	// CreatedAt order makes the newest value win.
	survivorOwns := make(map[string]bool, len(survivor.Properties))
	merged := make(map[string]any, len(survivor.Properties))
	for k, v := range survivor.Properties {
		merged[k] = v
		if !entities.IsEmptyValue(v) {
			survivorOwns[k] = true
		}
	}
	for _, loser := range losers {
		for k, v := range loser.Properties {
			if survivorOwns[k] || entities.IsEmptyValue(v) {
				continue
			}
			merged[k] = v
		}
	}

	plan := groupPlan{
		report: GroupReport{
			SurvivorID:             survivor.ID,
			MergedLoserIDs:         make([]string, 0, len(losers)),
			MergedProperties:       merged,
			RelationshipsRepointed: []RepointedRelationship{},
			RelationshipsDropped:   []string{},
		},
		survivor: survivor,
		losers:   losers,
	}
	for _, loser := range losers {
		plan.report.MergedLoserIDs = append(plan.report.MergedLoserIDs, loser.ID)
	}

	// Signatures of relationships already attached to the survivor. A rewrite
	// matching one of these, or a rewrite another group already produced,
	// would only multiply edges, so it is dropped.
	sigs := make(map[string]bool)
	survivorRels, err := s.store.GetRelationshipsByEntity(ctx, project, survivor.ID, ports.DirectionBoth)
	if err != nil {
		return groupPlan{}, fmt.Errorf("listing survivor relationships: %w", err)
	}
	for i := range survivorRels {
		sigs[relSignature(&survivorRels[i])] = true
	}

	for _, loser := range losers {
		rels, err := s.store.GetRelationshipsByEntity(ctx, project, loser.ID, ports.DirectionBoth)
		if err != nil {
			return groupPlan{}, fmt.Errorf("listing relationships of %q: %w", loser.ID, err)
		}
		for i := range rels {
			if seenRels[rels[i].ID] {
				continue
			}
			seenRels[rels[i].ID] = true

			rewritten := rels[i]
			var changes []RepointedRelationship
			if surv, ok := survivorOf[rewritten.FromEntityID]; ok {
				changes = append(changes, RepointedRelationship{
					RelationshipID: rels[i].ID,
					OldEntityID:    rewritten.FromEntityID,
					NewEntityID:    surv,
				})
				rewritten.FromEntityID = surv
			}
			if surv, ok := survivorOf[rewritten.ToEntityID]; ok {
				changes = append(changes, RepointedRelationship{
					RelationshipID: rels[i].ID,
					OldEntityID:    rewritten.ToEntityID,
					NewEntityID:    surv,
				})
				rewritten.ToEntityID = surv
			}

			sig := relSignature(&rewritten)
			if sigs[sig] || rewriteSigs[sig] {
				plan.report.RelationshipsDropped = append(plan.report.RelationshipsDropped, rels[i].ID)
				continue
			}
			sigs[sig] = true
			rewriteSigs[sig] = true
			plan.rewrites = append(plan.rewrites, rewritten)
			plan.report.RelationshipsRepointed = append(plan.report.RelationshipsRepointed, changes...)
		}
	}

	return plan, nil
}

// applyGroup writes one group's plan. The order (survivor properties, then
// relationship rewrites and drops, then loser deletion) guarantees no
// relationship ever references a deleted entity mid-operation.
func (s *DedupeService) applyGroup(ctx context.Context, project string, plan *groupPlan) error {
	survivor := plan.survivor
	survivor.Properties = plan.report.MergedProperties
	if err := s.store.PutEntity(ctx, &survivor); err != nil {
		return fmt.Errorf("updating survivor %q: %w", survivor.ID, err)
	}

	for i := range plan.rewrites {
		if err := s.store.PutRelationship(ctx, &plan.rewrites[i]); err != nil {
			return fmt.Errorf("re-pointing relationship %q: %w", plan.rewrites[i].ID, err)
		}
	}
	for _, id := range plan.report.RelationshipsDropped {
		if err := s.store.DeleteRelationship(ctx, project, id); err != nil {
			return fmt.Errorf("dropping duplicate relationship %q: %w", id, err)
		}
	}

	for _, loser := range plan.losers {
		if err := s.store.DeleteEntity(ctx, project, loser.ID); err != nil {
			return fmt.Errorf("deleting duplicate %q: %w", loser.ID, err)
		}
	}

	return nil
}

// relSignature builds a comparable signature of a relationship's endpoints,
// type, and properties. Map keys marshal in sorted order, so equal property
// sets produce equal signatures.
func relSignature(rel *entities.Relationship) string {
	props := []byte("{}")
	if len(rel.Properties) > 0 {
		props, _ = json.Marshal(rel.Properties)
	}
	return rel.FromEntityID + "\x1f" + rel.ToEntityID + "\x1f" + rel.Type + "\x1f" + string(props)
}
