package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clan-manager/internal/model"
	"clan-manager/pkg/apierror"
)

type AnnouncementService struct {
	announcements AnnouncementStore
	clans         ClanStore
}

func NewAnnouncementService(announcements AnnouncementStore, clans ClanStore) *AnnouncementService {
	return &AnnouncementService{announcements: announcements, clans: clans}
}

func (s *AnnouncementService) Create(ctx context.Context, caller *model.AuthClaims, req model.CreateAnnouncementRequest) (model.Announcement, error) {
	if err := requireCaller(caller); err != nil {
		return model.Announcement{}, err
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return model.Announcement{}, apierror.Validation("title is required", "title")
	}
	if content == "" {
		return model.Announcement{}, apierror.Validation("content is required", "content")
	}

	scope, err := s.resolveScope(ctx, caller, strings.TrimSpace(req.ClanID))
	if err != nil {
		return model.Announcement{}, err
	}
	if req.IsPinned {
		if err := s.checkPinCapacity(ctx, scope); err != nil {
			return model.Announcement{}, err
		}
	}

	now := time.Now().UTC()
	a := model.Announcement{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		IsPinned:  req.IsPinned,
		ClanID:    scope,
		AuthorID:  caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return model.Announcement{}, err
	}
	slog.Info("announcement created", "announcement_id", a.ID, "clan_id", a.ClanID, "pinned", a.IsPinned)
	return a, nil
}

func (s *AnnouncementService) List(ctx context.Context, clanID string) ([]model.Announcement, error) {
	return s.announcements.List(ctx, model.AnnouncementFilter{ClanID: strings.TrimSpace(clanID)})
}

func (s *AnnouncementService) Pinned(ctx context.Context, clanID string) ([]model.Announcement, error) {
	return s.announcements.List(ctx, model.AnnouncementFilter{ClanID: strings.TrimSpace(clanID), PinnedOnly: true})
}

func (s *AnnouncementService) ByMonth(ctx context.Context, year int, month int, clanID string) ([]model.Announcement, error) {
	if month < 1 || month > 12 {
		return nil, apierror.Validation("month must be between 1 and 12", "month")
	}
	if year < 1970 || year > 9999 {
		return nil, apierror.Validation("year is out of range", "year")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.announcements.List(ctx, model.AnnouncementFilter{ClanID: strings.TrimSpace(clanID), From: &from, To: &to})
}

func (s *AnnouncementService) Search(ctx context.Context, keyword string, clanID string) ([]model.Announcement, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apierror.BadRequest("keyword is required", "keyword")
	}
	return s.announcements.List(ctx, model.AnnouncementFilter{ClanID: strings.TrimSpace(clanID), Keyword: keyword})
}

func (s *AnnouncementService) Get(ctx context.Context, id string) (model.Announcement, error) {
	a, err := s.announcements.FindByID(ctx, id)
	if errors.Is(err, model.ErrAnnouncementNotFound) {
		return model.Announcement{}, apierror.NotFound("announcement not found", id)
	}
	return a, err
}

func (s *AnnouncementService) View(ctx context.Context, id string) (model.Announcement, error) {
	a, err := s.announcements.IncrementViews(ctx, id)
	if errors.Is(err, model.ErrAnnouncementNotFound) {
		return model.Announcement{}, apierror.NotFound("announcement not found", id)
	}
	return a, err
}

func (s *AnnouncementService) Update(ctx context.Context, caller *model.AuthClaims, id string, req model.UpdateAnnouncementRequest) (model.Announcement, error) {
	a, err := s.scopedAnnouncement(ctx, caller, id)
	if err != nil {
		return model.Announcement{}, err
	}

	scope := a.ClanID
	if req.ClanID != nil {
		requested := strings.TrimSpace(*req.ClanID)
		if !caller.IsSuperAdmin() && requested != a.ClanID {
			return model.Announcement{}, apierror.Forbidden("announcements cannot be moved to another clan")
		}
		if requested != a.ClanID {
			if scope, err = s.resolveScope(ctx, caller, requested); err != nil {
				return model.Announcement{}, err
			}
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return model.Announcement{}, apierror.Validation("title cannot be empty", "title")
		}
		a.Title = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return model.Announcement{}, apierror.Validation("content cannot be empty", "content")
		}
		a.Content = content
	}

	pinned := a.IsPinned
	if req.IsPinned != nil {
		pinned = *req.IsPinned
	}
	if pinned && (!a.IsPinned || scope != a.ClanID) {
		if err := s.checkPinCapacity(ctx, scope); err != nil {
			return model.Announcement{}, err
		}
	}
	a.IsPinned = pinned
	a.ClanID = scope

	if err := s.announcements.Update(ctx, a); err != nil {
		return model.Announcement{}, err
	}
	return s.announcements.FindByID(ctx, a.ID)
}

func (s *AnnouncementService) Delete(ctx context.Context, caller *model.AuthClaims, id string) error {
	a, err := s.scopedAnnouncement(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.announcements.Delete(ctx, a.ID); err != nil {
		return err
	}
	slog.Info("announcement deleted", "announcement_id", a.ID, "by", caller.UserID)
	return nil
}

// resolveScope returns the clan an announcement is published in. Leaders
// default to their own clan; an empty result is the global scope.
func (s *AnnouncementService) resolveScope(ctx context.Context, caller *model.AuthClaims, requested string) (string, error) {
	if !caller.IsSuperAdmin() {
		if caller.Role != model.RoleClanLeader || caller.ClanID == "" {
			return "", apierror.Forbidden("only clan leaders can publish announcements")
		}
		if requested != "" && requested != caller.ClanID {
			return "", apierror.Forbidden("you can only publish announcements for your own clan")
		}
		return caller.ClanID, nil
	}
	if requested == "" {
		return "", nil
	}
	if _, err := s.clans.FindByID(ctx, requested); err != nil {
		if errors.Is(err, model.ErrClanNotFound) {
			return "", apierror.BadRequest("clan does not exist", requested)
		}
		return "", err
	}
	return requested, nil
}

func (s *AnnouncementService) checkPinCapacity(ctx context.Context, scope string) error {
	count, err := s.announcements.CountPinned(ctx, scope)
	if err != nil {
		return err
	}
	if count >= model.MaxPinnedPerScope {
		return apierror.PinnedLimitReached(model.MaxPinnedPerScope)
	}
	return nil
}

func (s *AnnouncementService) scopedAnnouncement(ctx context.Context, caller *model.AuthClaims, id string) (model.Announcement, error) {
	if err := requireCaller(caller); err != nil {
		return model.Announcement{}, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return model.Announcement{}, err
	}
	if !caller.IsSuperAdmin() && !caller.IsLeaderOf(a.ClanID) {
		return model.Announcement{}, apierror.Forbidden("you can only manage announcements of your own clan")
	}
	return a, nil
}
