package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"prombank/internal/domain"
	"prombank/internal/port"
)

// FakeStore is a test-only in-memory store implementing AuthStore,
// APITokenStore and GuardStore. It mirrors the conditional-update semantics
// of the real storage so rotation and revocation races behave the same.
type FakeStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*domain.User // by id
	byOrigin map[string]string       // provider|providerID -> user id
	refresh  map[string]*fakeRefreshToken
	tokens   map[string]*domain.APIToken
}

type fakeRefreshToken struct {
	userID    string
	tokenHash string
	expiresAt time.Time
	revoked   bool
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:    make(map[string]*domain.User),
		byOrigin: make(map[string]string),
		refresh:  make(map[string]*fakeRefreshToken),
		tokens:   make(map[string]*domain.APIToken),
	}
}

func (f *FakeStore) nextID(kind string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", kind, f.seq)
}

func (f *FakeStore) UpsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := u.Provider + "|" + u.ProviderID
	if id, ok := f.byOrigin[key]; ok {
		existing := f.users[id]
		existing.Email = strings.ToLower(u.Email)
		existing.Name = u.Name
		existing.AvatarURL = u.AvatarURL
		cp := *existing
		return &cp, nil
	}

	created := *u
	created.ID = f.nextID("user")
	created.Email = strings.ToLower(u.Email)
	created.IsActive = true
	created.CreatedAt = time.Now()
	f.users[created.ID] = &created
	f.byOrigin[key] = created.ID
	cp := created
	return &cp, nil
}

func (f *FakeStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return nil, port.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *FakeStore) CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refresh[id] = &fakeRefreshToken{userID: userID, tokenHash: tokenHash, expiresAt: expiresAt}
	return nil
}

func (f *FakeStore) ConsumeRefreshToken(ctx context.Context, id, tokenHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.refresh[id]
	if !ok || rec.revoked || rec.tokenHash != tokenHash || time.Now().After(rec.expiresAt) {
		return "", port.ErrInvalidToken
	}
	rec.revoked = true
	return rec.userID, nil
}

func (f *FakeStore) RevokeUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, rec := range f.refresh {
		if rec.userID == userID && !rec.revoked {
			rec.revoked = true
			n++
		}
	}
	return n, nil
}

func (f *FakeStore) CreateAPIToken(ctx context.Context, t *domain.APIToken) (*domain.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.tokens {
		if existing.UserID == t.UserID && existing.Name == t.Name && !existing.Revoked {
			return nil, fmt.Errorf("%w: token %q", port.ErrDuplicateName, t.Name)
		}
	}

	created := *t
	created.ID = f.nextID("token")
	created.CreatedAt = time.Now()
	f.tokens[created.ID] = &created
	cp := created
	return &cp, nil
}

func (f *FakeStore) ListAPITokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.APIToken{}
	for _, t := range f.tokens {
		if t.UserID == userID && !t.Revoked {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeStore) RevokeAPIToken(ctx context.Context, userID, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tokens[tokenID]
	if !ok || t.UserID != userID || t.Revoked {
		return port.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (f *FakeStore) GetAPITokenByPrefix(ctx context.Context, prefix string) (*domain.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tokens {
		if t.Prefix == prefix && !t.Revoked {
			cp := *t
			return &cp, nil
		}
	}
	return nil, port.ErrNotFound
}

func (f *FakeStore) TouchAPIToken(ctx context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.tokens[tokenID]; ok {
		now := time.Now()
		t.LastUsedAt = &now
	}
	return nil
}

// FakePromptStore is a test-only in-memory store implementing PromptStore,
// CategoryStore and TagStore with the same visibility and filter rules as
// the SQL layer.
type FakePromptStore struct {
	mu         sync.Mutex
	seq        int
	prompts    map[string]*domain.Prompt
	versions   map[string][]domain.PromptVersion
	categories map[string]*domain.Category
}

func NewFakePromptStore() *FakePromptStore {
	return &FakePromptStore{
		prompts:    make(map[string]*domain.Prompt),
		versions:   make(map[string][]domain.PromptVersion),
		categories: make(map[string]*domain.Category),
	}
}

func (f *FakePromptStore) nextID(kind string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", kind, f.seq)
}

func (f *FakePromptStore) CreatePrompt(ctx context.Context, p *domain.Prompt, tagNames []string) (*domain.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	created := *p
	created.ID = f.nextID("prompt")
	created.Version = "1.0.0"
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	created.Tags = tagsFromNames(tagNames)

	f.prompts[created.ID] = &created
	f.versions[created.ID] = []domain.PromptVersion{{
		ID:        f.nextID("version"),
		PromptID:  created.ID,
		Version:   "1.0.0",
		Title:     created.Title,
		Content:   created.Content,
		ChangeLog: "Initial version",
		CreatedAt: created.CreatedAt,
	}}

	cp := created
	return &cp, nil
}

func (f *FakePromptStore) GetPrompt(ctx context.Context, id, viewerID string, includeVersions bool) (*domain.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.prompts[id]
	if !ok || (!p.IsPublic && p.UserID != viewerID) {
		return nil, port.ErrNotFound
	}
	cp := *p
	if p.CategoryID != nil {
		if c, ok := f.categories[*p.CategoryID]; ok {
			cc := *c
			cp.Category = &cc
		}
	}
	if includeVersions {
		cp.Versions = f.versionsDesc(id)
	}
	return &cp, nil
}

func (f *FakePromptStore) ListPrompts(ctx context.Context, filter domain.PromptFilter, viewerID string) ([]domain.Prompt, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []domain.Prompt
	for _, p := range f.prompts {
		if !p.IsPublic && p.UserID != viewerID {
			continue
		}
		if filter.Status != "" {
			if p.Status != filter.Status {
				continue
			}
		} else if p.Status != domain.StatusActive && p.Status != domain.StatusDraft {
			continue
		}
		if filter.Type != "" && p.PromptType != filter.Type {
			continue
		}
		if filter.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != filter.CategoryID) {
			continue
		}
		if filter.IsPublic != nil && p.IsPublic != *filter.IsPublic {
			continue
		}
		if filter.IsFavorite != nil && p.IsFavorite != *filter.IsFavorite {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) &&
				!strings.Contains(strings.ToLower(p.Content), needle) {
				continue
			}
		}
		if !hasAllTags(p.Tags, filter.Tags) {
			continue
		}
		matched = append(matched, *p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if filter.Offset >= len(matched) {
		return []domain.Prompt{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *FakePromptStore) ApplyPromptUpdate(ctx context.Context, promptID string, upd domain.PromptUpdate, contentHash string, newVersion *domain.PromptVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.prompts[promptID]
	if !ok {
		return port.ErrNotFound
	}

	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Content != nil {
		p.Content = *upd.Content
		p.ContentHash = contentHash
	}
	if upd.CategoryID != nil {
		if *upd.CategoryID == "" {
			p.CategoryID = nil
		} else {
			id := *upd.CategoryID
			p.CategoryID = &id
		}
	}
	if upd.TagsSet {
		p.Tags = tagsFromNames(upd.Tags)
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.IsPublic != nil {
		p.IsPublic = *upd.IsPublic
	}
	if upd.IsFavorite != nil {
		p.IsFavorite = *upd.IsFavorite
	}
	if upd.TemplateVariables != nil {
		p.TemplateVariables = upd.TemplateVariables
	}
	if newVersion != nil {
		v := *newVersion
		v.ID = f.nextID("version")
		v.CreatedAt = time.Now()
		f.versions[promptID] = append(f.versions[promptID], v)
		p.Version = v.Version
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (f *FakePromptStore) DeletePrompt(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.prompts[id]
	if !ok || p.UserID != userID {
		return port.ErrNotFound
	}
	delete(f.prompts, id)
	delete(f.versions, id)
	return nil
}

func (f *FakePromptStore) IncrementPromptUsage(ctx context.Context, id, viewerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.prompts[id]
	if !ok || (!p.IsPublic && p.UserID != viewerID) {
		return port.ErrNotFound
	}
	p.UsageCount++
	now := time.Now()
	p.LastUsedAt = &now
	return nil
}

func (f *FakePromptStore) ListPromptVersions(ctx context.Context, promptID string) ([]domain.PromptVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versionsDesc(promptID), nil
}

func (f *FakePromptStore) FindPromptsByContentHash(ctx context.Context, hash, userID string) ([]domain.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.Prompt{}
	for _, p := range f.prompts {
		if p.UserID == userID && p.ContentHash == hash {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *FakePromptStore) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.categories {
		if existing.Name == c.Name {
			return nil, fmt.Errorf("%w: category %q", port.ErrDuplicateName, c.Name)
		}
	}
	created := *c
	created.ID = f.nextID("category")
	created.CreatedAt = time.Now()
	f.categories[created.ID] = &created
	cp := created
	return &cp, nil
}

func (f *FakePromptStore) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.categories[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakePromptStore) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, port.ErrNotFound
}

func (f *FakePromptStore) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.Category{}
	for _, c := range f.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakePromptStore) UpdateCategory(ctx context.Context, id string, name, description, color *string, isActive *bool) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.categories[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	if color != nil {
		c.Color = *color
	}
	if isActive != nil {
		c.IsActive = *isActive
	}
	cp := *c
	return &cp, nil
}

func (f *FakePromptStore) DeleteCategory(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.categories[id]; !ok {
		return port.ErrNotFound
	}
	delete(f.categories, id)
	for _, p := range f.prompts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return nil
}

func (f *FakePromptStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := map[string]domain.Tag{}
	for _, p := range f.prompts {
		for _, t := range p.Tags {
			seen[t.Name] = t
		}
	}
	out := make([]domain.Tag, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakePromptStore) SearchTags(ctx context.Context, query string, limit int) ([]domain.Tag, error) {
	all, _ := f.ListTags(ctx)
	out := []domain.Tag{}
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *FakePromptStore) PopularTags(ctx context.Context, limit int) ([]domain.TagUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := map[string]int{}
	tags := map[string]domain.Tag{}
	for _, p := range f.prompts {
		for _, t := range p.Tags {
			counts[t.Name]++
			tags[t.Name] = t
		}
	}
	out := []domain.TagUsage{}
	for name, n := range counts {
		out = append(out, domain.TagUsage{Tag: tags[name], UsageCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UsageCount > out[j].UsageCount })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakePromptStore) DeleteTag(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	found := false
	for _, p := range f.prompts {
		kept := p.Tags[:0]
		for _, t := range p.Tags {
			if t.ID == id {
				found = true
				continue
			}
			kept = append(kept, t)
		}
		p.Tags = kept
	}
	if !found {
		return port.ErrNotFound
	}
	return nil
}

func (f *FakePromptStore) versionsDesc(promptID string) []domain.PromptVersion {
	out := append([]domain.PromptVersion(nil), f.versions[promptID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func tagsFromNames(names []string) []domain.Tag {
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, domain.Tag{ID: "tag-" + name, Name: name})
	}
	return tags
}

func hasAllTags(have []domain.Tag, want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range have {
			if t.Name == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
