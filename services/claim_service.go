package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"fizzcaps-server/models"
)

// LootMetadataPublisher receives the off-chain metadata for every issued
// voucher. Implementations must not block the claim path.
type LootMetadataPublisher interface {
	Publish(meta models.LootMetadata)
}

// ClaimRequest is the inbound payload of POST /find-loot.
type ClaimRequest struct {
	Wallet    string  `json:"wallet"`
	Spot      string  `json:"spot"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Message   string  `json:"message"`
	Signature string  `json:"signature"`
}

// ClaimResult is everything a successful claim returns: the committed state,
// the reward breakdown, and the signed voucher for the on-chain mint.
type ClaimResult struct {
	State        *models.PlayerState
	Reward       *RewardSummary
	Voucher      *models.LootVoucher
	DistanceM    float64
	ServerPubkey string
}

// ClaimService runs the full claim pipeline: identity → geofence → cooldown
// and progression under one CAS → voucher signing → metadata publish.
type ClaimService struct {
	Players  *PlayerService
	Catalog  *models.Catalog
	Engine   *ProgressionEngine
	Geofence GeofenceValidator
	Cooldown *CooldownLedger
	Signer   *VoucherSigner
	Metadata LootMetadataPublisher // nil disables publishing
}

// Claim validates and commits one claim. Any error is a *GameError with no
// state change; on success the state write, cooldown stamp and claimed-set
// append have all committed atomically before the voucher is returned.
func (s *ClaimService) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	if !ValidWallet(req.Wallet) {
		return nil, errInvalidIdentity()
	}
	loc, ok := s.Catalog.Get(req.Spot)
	if !ok {
		return nil, errUnknownLocation(req.Spot)
	}

	// The signed message must name the claimed location and be fresh; the
	// bytes verified are exactly the bytes the wallet signed.
	now := time.Now()
	if err := s.Players.VerifySignedAction(req.Wallet, "Claim", loc.Name, req.Message, req.Signature, now); err != nil {
		return nil, err
	}
	_, _, messageTS, _ := ParseActionMessage(req.Message)

	distance, err := s.Geofence.Check(req.Latitude, req.Longitude, req.Accuracy, loc)
	if err != nil {
		return nil, err
	}

	// Loot ids are allocated before the commit; ids burned by a failed CAS
	// are acceptable, an id reuse is not.
	lootID, err := s.Players.Store.NextLootID(ctx)
	if err != nil {
		return nil, errStoreUnavailable(err)
	}

	var reward *RewardSummary
	state, err := s.Players.Mutate(ctx, req.Wallet, func(st *models.PlayerState) error {
		// Already-claimed is checked before the cooldown so the client gets
		// the more specific error for a permanently spent location.
		if st.HasClaimed(loc.Name) {
			return errAlreadyClaimed(loc.Name)
		}
		if remaining := s.Cooldown.Remaining(st, now); remaining > 0 {
			return errCooldownActive(remaining)
		}
		r, err := s.Engine.ApplyClaim(st, loc)
		if err != nil {
			return err
		}
		s.Cooldown.Stamp(st, now)
		reward = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cooldown.Mirror(ctx, req.Wallet, now)

	voucher := &models.LootVoucher{
		LootID:       lootID,
		Latitude:     loc.Lat,
		Longitude:    loc.Lng,
		Timestamp:    messageTS,
		LocationHint: loc.Name,
	}
	voucher.ServerSignature = s.Signer.Sign(voucher.SerializePayload())
	voucher.ServerPubkey = s.Signer.PublicKeyBase58()

	if s.Metadata != nil {
		s.Metadata.Publish(buildLootMetadata(voucher, loc, reward))
	}

	log.Printf("🏜️ [CLAIM] %s claimed %q (%s) at %.0fm — +%d xp, +%d caps, drop=%t",
		req.Wallet, loc.Name, loc.Rarity, distance, reward.XPGained, reward.CapsGained, reward.GearDropped)

	return &ClaimResult{
		State:        state,
		Reward:       reward,
		Voucher:      voucher,
		DistanceM:    distance,
		ServerPubkey: s.Signer.PublicKeyBase58(),
	}, nil
}

// VoucherRequest is the inbound payload of POST /claim-voucher: a voucher
// re-issue for a location the identity already holds, used when the player
// mints on-chain some time after the claim.
type VoucherRequest struct {
	Wallet    string `json:"wallet"`
	Spot      string `json:"spot"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// ReissueVoucher signs a fresh voucher without touching progression. Gated
// on ownership of the claim and on the cooldown mirror so the endpoint can't
// be hammered for signature material.
func (s *ClaimService) ReissueVoucher(ctx context.Context, req VoucherRequest) (*models.LootVoucher, error) {
	if !ValidWallet(req.Wallet) {
		return nil, errInvalidIdentity()
	}
	loc, ok := s.Catalog.Get(req.Spot)
	if !ok {
		return nil, errUnknownLocation(req.Spot)
	}
	now := time.Now()
	if err := s.Players.VerifySignedAction(req.Wallet, "Voucher", loc.Name, req.Message, req.Signature, now); err != nil {
		return nil, err
	}
	_, _, messageTS, _ := ParseActionMessage(req.Message)

	state, _, err := s.Players.LoadOrDefault(ctx, req.Wallet)
	if err != nil {
		return nil, err
	}
	if !state.HasClaimed(loc.Name) {
		return nil, errNotClaimed(loc.Name)
	}
	if remaining, err := s.Cooldown.MirrorRemaining(ctx, req.Wallet, now); err != nil {
		return nil, err
	} else if remaining > 0 {
		return nil, errCooldownActive(remaining)
	}

	lootID, err := s.Players.Store.NextLootID(ctx)
	if err != nil {
		return nil, errStoreUnavailable(err)
	}
	voucher := &models.LootVoucher{
		LootID:       lootID,
		Latitude:     loc.Lat,
		Longitude:    loc.Lng,
		Timestamp:    messageTS,
		LocationHint: loc.Name,
	}
	voucher.ServerSignature = s.Signer.Sign(voucher.SerializePayload())
	voucher.ServerPubkey = s.Signer.PublicKeyBase58()

	s.Cooldown.Mirror(ctx, req.Wallet, now)

	if s.Metadata != nil {
		s.Metadata.Publish(buildLootMetadata(voucher, loc, nil))
	}
	return voucher, nil
}

func buildLootMetadata(v *models.LootVoucher, loc *models.Location, reward *RewardSummary) models.LootMetadata {
	attrs := []models.MetadataAttribute{
		{TraitType: "rarity", Value: string(loc.Rarity)},
		{TraitType: "location", Value: loc.Name},
		{TraitType: "location_slug", Value: loc.Slug},
		{TraitType: "level", Value: fmt.Sprintf("%d", loc.Level)},
	}
	if reward != nil && reward.Gear != nil {
		attrs = append(attrs, models.MetadataAttribute{TraitType: "gear", Value: reward.Gear.Name})
	}
	return models.LootMetadata{
		LootID: v.LootID,
		Name: fmt.Sprintf("Fizz Cache #%d @ (%.4f,%.4f) %s",
			v.LootID, v.Latitude, v.Longitude, v.LocationHint),
		Symbol:      "FIZZLOOT",
		Description: fmt.Sprintf("Loot cache recovered at %s.", loc.Name),
		Image:       fmt.Sprintf("img/%s.png", loc.Slug),
		Attributes:  attrs,
	}
}
