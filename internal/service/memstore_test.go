package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// memStore is an in-memory Store. Claims run under the mutex so they are as
// atomic as the claim_text routine.
type memStore struct {
	mu sync.Mutex

	campaigns     []*model.Campaign
	products      []*model.Product
	texts         []*model.Text
	assignments   []*model.Assignment
	links         []*model.AssignmentText
	notifications []*model.Notification

	// fault injection
	claimHook          func(ctx context.Context, product uuid.UUID) error
	linkHook           func(n int) error
	beforeCreate       func(a *model.Assignment)
	afterConflict      func(a *model.Assignment)
	deleteLinksErr     error
	releaseErr         error
	deleteAssignErr    error
	listProductsErr    error
	createNotifyErr    error
	deleteAssignCalled bool
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) addCampaign(name string, status model.CampaignStatus) *model.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Campaign{ID: uuid.New(), Name: name, Status: status, CreatedAt: time.Now()}
	m.campaigns = append(m.campaigns, c)
	return c
}

// addProduct appends a product with one text per content and returns its id
func (m *memStore) addProduct(campaignID uuid.UUID, name string, contents ...string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addProductLocked(&model.Product{CampaignID: campaignID, Name: name}, contents)
}

func (m *memStore) addProductLocked(p *model.Product, contents []string) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Position == 0 {
		for _, existing := range m.products {
			if existing.CampaignID == p.CampaignID && existing.Position > p.Position {
				p.Position = existing.Position
			}
		}
		p.Position++
	}
	m.products = append(m.products, p)
	for i, c := range contents {
		m.texts = append(m.texts, &model.Text{ID: uuid.New(), ProductID: p.ID, Content: c, OptionNumber: i + 1})
	}
	return p.ID
}

func (m *memStore) assignedCount(productID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.texts {
		if t.ProductID == productID && t.IsAssigned {
			n++
		}
	}
	return n
}

func (m *memStore) totalAssigned() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.texts {
		if t.IsAssigned {
			n++
		}
	}
	return n
}

func (m *memStore) linkCount(assignmentID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.links {
		if l.AssignmentID == assignmentID {
			n++
		}
	}
	return n
}

func (m *memStore) assignmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assignments)
}

func (m *memStore) CreateCampaign(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.CampaignActive
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.campaigns = append(m.campaigns, c)
	return nil
}

func (m *memStore) findCampaign(id uuid.UUID) *model.Campaign {
	for _, c := range m.campaigns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *memStore) GetCampaign(_ context.Context, id uuid.UUID) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.findCampaign(id)
	if c == nil {
		return nil, model.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetActiveCampaign(context.Context) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.Status == model.CampaignActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, model.ErrNoActiveCampaign
}

func (m *memStore) UpdateCampaignStatus(_ context.Context, id uuid.UUID, status model.CampaignStatus) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.findCampaign(id)
	if c == nil {
		return nil, model.ErrCampaignNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (m *memStore) ListProducts(_ context.Context, campaignID uuid.UUID) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listProductsErr != nil {
		return nil, m.listProductsErr
	}
	var out []model.Product
	for _, p := range m.products {
		if p.CampaignID == campaignID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) GetInventory(ctx context.Context, campaignID uuid.UUID) ([]model.ProductInventory, error) {
	products, err := m.ListProducts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ProductInventory, 0, len(products))
	for _, p := range products {
		inv := model.ProductInventory{ProductID: p.ID, ProductName: p.Name, Position: p.Position}
		for _, t := range m.texts {
			if t.ProductID != p.ID {
				continue
			}
			inv.Total++
			if t.IsAssigned {
				inv.Assigned++
			}
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *model.Product, contents []string) ([]model.Text, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findCampaign(p.CampaignID) == nil {
		return nil, model.ErrCampaignNotFound
	}
	id := m.addProductLocked(p, contents)
	var out []model.Text
	for _, t := range m.texts {
		if t.ProductID == id {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) ClaimText(ctx context.Context, _ uuid.UUID, productID uuid.UUID) (*model.Text, error) {
	if m.claimHook != nil {
		if err := m.claimHook(ctx, productID); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var pick *model.Text
	for _, t := range m.texts {
		if t.ProductID == productID && !t.IsAssigned && (pick == nil || t.OptionNumber < pick.OptionNumber) {
			pick = t
		}
	}
	if pick == nil {
		return nil, &model.OutOfTextsError{ProductID: productID}
	}
	now := time.Now()
	pick.IsAssigned = true
	pick.ClaimedAt = &now
	cp := *pick
	return &cp, nil
}

func (m *memStore) ReleaseTexts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.releaseErr != nil {
		return 0, m.releaseErr
	}
	var n int64
	for _, id := range ids {
		for _, t := range m.texts {
			if t.ID == id && t.IsAssigned {
				t.IsAssigned = false
				t.ClaimedAt = nil
				n++
			}
		}
	}
	return n, nil
}

func (m *memStore) ReleaseOrphanedTexts(_ context.Context, claimedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	linked := make(map[uuid.UUID]bool, len(m.links))
	for _, l := range m.links {
		linked[l.TextID] = true
	}
	var n int64
	for _, t := range m.texts {
		if t.IsAssigned && !linked[t.ID] && t.ClaimedAt != nil && t.ClaimedAt.Before(claimedBefore) {
			t.IsAssigned = false
			t.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindAssignment(_ context.Context, campaignID uuid.UUID, email string) (*model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.CampaignID == campaignID && a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrAssignmentNotFound
}

func (m *memStore) findAssignment(id uuid.UUID) *model.Assignment {
	for _, a := range m.assignments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (m *memStore) GetAssignment(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.findAssignment(id)
	if a == nil {
		return nil, model.ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) CreateAssignment(_ context.Context, a *model.Assignment) (bool, error) {
	if m.beforeCreate != nil {
		m.beforeCreate(a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findCampaign(a.CampaignID) == nil {
		return false, model.ErrCampaignNotFound
	}
	for _, existing := range m.assignments {
		if existing.CampaignID == a.CampaignID && existing.Email == a.Email {
			if m.afterConflict != nil {
				winner := *existing
				m.mu.Unlock()
				m.afterConflict(&winner)
				m.mu.Lock()
			}
			return false, nil
		}
	}
	a.Status = model.AssignmentAssigned
	a.AssignedAt = time.Now()
	a.CompletedAt = nil
	cp := *a
	m.assignments = append(m.assignments, &cp)
	return true, nil
}

func (m *memStore) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteAssignCalled = true
	if m.deleteAssignErr != nil {
		return m.deleteAssignErr
	}
	kept := m.assignments[:0]
	for _, a := range m.assignments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	m.assignments = kept
	return nil
}

func (m *memStore) MarkViewed(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.findAssignment(id)
	if a == nil || a.Status != model.AssignmentAssigned {
		return false, nil
	}
	a.Status = model.AssignmentViewed
	return true, nil
}

func (m *memStore) CompleteAssignment(_ context.Context, id uuid.UUID, completedAt time.Time) (*model.Assignment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.findAssignment(id)
	if a == nil {
		return nil, false, model.ErrAssignmentNotFound
	}
	if a.Status == model.AssignmentCompleted {
		cp := *a
		return &cp, false, nil
	}
	a.Status = model.AssignmentCompleted
	a.CompletedAt = &completedAt
	cp := *a
	return &cp, true, nil
}

func (m *memStore) CreateAssignmentText(_ context.Context, link *model.AssignmentText) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkHook != nil {
		if err := m.linkHook(len(m.links)); err != nil {
			return err
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = time.Now()
	cp := *link
	m.links = append(m.links, &cp)
	return nil
}

func (m *memStore) DeleteAssignmentTexts(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteLinksErr != nil {
		return 0, m.deleteLinksErr
	}
	var n int64
	kept := m.links[:0]
	for _, l := range m.links {
		if l.AssignmentID == assignmentID {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.links = kept
	return n, nil
}

func (m *memStore) ListAssignmentTexts(_ context.Context, assignmentID uuid.UUID) ([]model.AssignmentTextDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AssignmentTextDetail
	for _, l := range m.links {
		if l.AssignmentID != assignmentID {
			continue
		}
		d := model.AssignmentTextDetail{AssignmentText: *l}
		for _, p := range m.products {
			if p.ID == l.ProductID {
				d.ProductName = p.Name
				d.ProductPosition = p.Position
			}
		}
		for _, t := range m.texts {
			if t.ID == l.TextID {
				d.Content = t.Content
				d.OptionNumber = t.OptionNumber
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductPosition < out[j].ProductPosition })
	return out, nil
}

func (m *memStore) findLink(id uuid.UUID) *model.AssignmentText {
	for _, l := range m.links {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (m *memStore) RecordCopy(_ context.Context, linkID uuid.UUID, copiedAt time.Time) (*model.AssignmentText, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.findLink(linkID)
	if l == nil {
		return nil, model.ErrLinkNotFound
	}
	l.CopiedAt = &copiedAt
	cp := *l
	return &cp, nil
}

func (m *memStore) RecordUpload(_ context.Context, linkID uuid.UUID, uploadURL string) (*model.AssignmentText, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.findLink(linkID)
	if l == nil {
		return nil, model.ErrLinkNotFound
	}
	l.UploadURL = &uploadURL
	cp := *l
	return &cp, nil
}

func (m *memStore) CreateNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createNotifyErr != nil {
		return m.createNotifyErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *memStore) ListPendingNotifications(_ context.Context, after model.NotificationCursor, limit int) ([]model.PendingNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldest := map[uuid.UUID]time.Time{}
	for _, n := range m.notifications {
		if n.Sent {
			continue
		}
		a := m.findAssignment(n.AssignmentID)
		if a == nil || a.Status != model.AssignmentCompleted {
			continue
		}
		if at, ok := oldest[a.ID]; !ok || n.CreatedAt.Before(at) {
			oldest[a.ID] = n.CreatedAt
		}
	}

	var out []model.PendingNotification
	for id, createdAt := range oldest {
		if createdAt.Before(after.CreatedAt) ||
			(createdAt.Equal(after.CreatedAt) && bytes.Compare(id[:], after.AssignmentID[:]) <= 0) {
			continue
		}
		a := m.findAssignment(id)
		out = append(out, model.PendingNotification{
			AssignmentID: id,
			Email:        a.Email,
			CampaignName: m.findCampaign(a.CampaignID).Name,
			CreatedAt:    createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].AssignmentID[:], out[j].AssignmentID[:]) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) markSent(assignmentID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.AssignmentID == assignmentID {
			n.Sent = true
		}
	}
}

func (m *memStore) notificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}
