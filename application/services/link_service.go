package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/domain/blocks"
)

// recommendationLimit caps the neighbors returned for a single block.
const recommendationLimit = 5

// LinkService maintains the tiered similarity edges between blocks and
// records interaction telemetry. Linking is O(n) in the owner's block count
// per pass; edge writes are paced so a pass trickles through the graph
// store instead of bursting it.
type LinkService struct {
	blockRepo ports.BlockRepository
	traceRepo ports.TraceRepository
	pairDelay time.Duration
	logger    *zap.Logger
}

// NewLinkService creates a link service. pairDelay is the pause between
// consecutive edge upserts within one linking pass.
func NewLinkService(
	blockRepo ports.BlockRepository,
	traceRepo ports.TraceRepository,
	pairDelay time.Duration,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		blockRepo: blockRepo,
		traceRepo: traceRepo,
		pairDelay: pairDelay,
		logger:    logger,
	}
}

// TraceBlockLinks recomputes the target block's similarity edges against
// every other block the owner has. For each pair clearing the lowest tier
// threshold the directed edge target→peer is upserted, replacing any
// previous tier for that pair. Pairs that no longer clear any threshold are
// left alone: existing edges go stale rather than being deleted.
func (s *LinkService) TraceBlockLinks(ctx context.Context, ownerID, blockID string) error {
	target, err := s.blockRepo.GetByID(ctx, ownerID, blockID)
	if err != nil {
		return err
	}
	if len(target.Embeddings) == 0 {
		s.logger.Warn("skipping link pass for block without embeddings",
			zap.String("blockId", blockID),
		)
		return nil
	}

	peers, err := s.blockRepo.List(ctx, ownerID, ports.ListOptions{IncludeEmbeddings: true})
	if err != nil {
		return err
	}

	var (
		upserts  int
		pairErrs []error
	)
	for _, peer := range peers {
		if peer.ID == target.ID {
			continue
		}
		if len(peer.Embeddings) == 0 {
			continue
		}

		similarity, err := blocks.Cosine(target.Embeddings, peer.Embeddings)
		if err != nil {
			// A bad vector is a data bug; surface it but keep linking
			// the remaining pairs.
			pairErrs = append(pairErrs, err)
			s.logger.Error("similarity computation failed",
				zap.String("blockId", target.ID),
				zap.String("peerId", peer.ID),
				zap.Error(err),
			)
			continue
		}

		tier, ok := blocks.TierFor(similarity)
		if !ok {
			continue
		}

		if err := s.blockRepo.UpsertSimilarityEdge(ctx, ownerID, target.ID, peer.ID, tier, similarity, time.Now().UTC()); err != nil {
			pairErrs = append(pairErrs, err)
			continue
		}
		upserts++

		if s.pairDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pairDelay):
			}
		}
	}

	s.logger.Info("link pass completed",
		zap.String("blockId", target.ID),
		zap.Int("peers", len(peers)-1),
		zap.Int("edges", upserts),
	)
	return errors.Join(pairErrs...)
}

// RelatedBlocks returns the block's strongest stored neighbors, similarity
// descending. Scores reflect the values at edge creation time and may be
// stale relative to current content.
func (s *LinkService) RelatedBlocks(ctx context.Context, ownerID, blockID string) ([]blocks.RecommendedBlock, error) {
	if _, err := s.blockRepo.GetByID(ctx, ownerID, blockID); err != nil {
		return nil, err
	}
	return s.blockRepo.RelatedBlocks(ctx, ownerID, blockID, recommendationLimit)
}

// TraceTime records a timestamped interaction with a block.
func (s *LinkService) TraceTime(ctx context.Context, ownerID, blockID string, action blocks.TimeAction, device string) error {
	return s.traceRepo.SaveTimeTrace(ctx, ownerID, blocks.TimeTrace{
		BlockID:   blockID,
		Action:    action,
		Device:    device,
		Timestamp: time.Now().UTC(),
	})
}

// TraceContext records the device and location context of an interaction.
func (s *LinkService) TraceContext(ctx context.Context, ownerID, blockID, device, location string) error {
	return s.traceRepo.SaveContextTrace(ctx, ownerID, blocks.ContextTrace{
		BlockID:   blockID,
		Device:    device,
		Location:  location,
		Timestamp: time.Now().UTC(),
	})
}

// TraceActivity classifies a content edit by character delta and records it.
func (s *LinkService) TraceActivity(ctx context.Context, ownerID, blockID string, oldLength, newLength int) error {
	delta := newLength - oldLength
	return s.traceRepo.SaveActivityTrace(ctx, ownerID, blocks.ActivityTrace{
		BlockID:        blockID,
		Classification: blocks.ClassifyEdit(delta),
		Delta:          delta,
		Timestamp:      time.Now().UTC(),
	})
}

// TracePreviousBlock records navigation order between two blocks.
func (s *LinkService) TracePreviousBlock(ctx context.Context, ownerID, blockID, previousBlockID string) error {
	return s.traceRepo.LinkPreviousBlock(ctx, ownerID, blockID, previousBlockID)
}

// TraceUserFeedback records explicit feedback on a recommendation.
func (s *LinkService) TraceUserFeedback(ctx context.Context, ownerID, blockID string, rating int, comment string) error {
	return s.traceRepo.SaveFeedbackTrace(ctx, ownerID, blocks.FeedbackTrace{
		BlockID:   blockID,
		Rating:    rating,
		Comment:   comment,
		Timestamp: time.Now().UTC(),
	})
}
