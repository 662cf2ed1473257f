package main

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"accessimaps/internal/domain/admindashboard"
	"accessimaps/internal/domain/comments"
	"accessimaps/internal/domain/places"
	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/domain/storage"
	"accessimaps/internal/domain/users"
	"accessimaps/internal/params"
	"accessimaps/internal/search"
)

// memDB backs the in-memory stores the handler tests run against. It keeps
// the same rules the postgres repositories enforce.
type memDB struct {
	mu       sync.Mutex
	seq      int64
	clock    time.Time
	users    map[int64]*users.User
	tokens   map[int64]string
	places   map[int64]*places.Place
	ratings  map[int64]*ratings.Rating
	comments map[int64]*comments.Comment
}

func newMemDB() *memDB {
	return &memDB{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[int64]*users.User{},
		tokens:   map[int64]string{},
		places:   map[int64]*places.Place{},
		ratings:  map[int64]*ratings.Rating{},
		comments: map[int64]*comments.Comment{},
	}
}

func (m *memDB) container() *storage.Container {
	return &storage.Container{
		Users:     memUsers{m},
		Places:    memPlaces{m},
		Ratings:   memRatings{m},
		Comments:  memComments{m},
		Dashboard: memDashboard{m},
	}
}

// next returns a fresh id and a strictly increasing timestamp.
func (m *memDB) next() (int64, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	return m.seq, m.clock
}

func (m *memDB) recompute(placeID int64) ratings.Averages {
	var scores []ratings.Scores
	for _, r := range m.ratings {
		if r.PlaceID == placeID {
			scores = append(scores, r.Scores)
		}
	}
	avg := ratings.Aggregate(scores)
	if p, ok := m.places[placeID]; ok {
		p.Averages = avg
	}
	return avg
}

func page[T any](items []T, p params.Pagination) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}

type memUsers struct{ m *memDB }

func (s memUsers) Create(_ context.Context, u *users.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, x := range s.m.users {
		if x.Email == u.Email {
			return users.ErrDuplicateEmail
		}
	}
	u.ID, u.CreatedAt = s.m.next()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.m.users[u.ID] = &cp
	return nil
}

func (s memUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*users.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, u := range s.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s memUsers) Promote(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[id]
	if !ok {
		return users.ErrNotFound
	}
	if u.IsAdmin {
		return users.ErrAlreadyAdmin
	}
	u.IsAdmin, u.IsBanned = true, false
	return nil
}

func (s memUsers) SetBanned(_ context.Context, actorID, id int64, banned bool) error {
	if banned && actorID == id {
		return users.ErrBanSelf
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u, ok := s.m.users[id]
	if !ok {
		return users.ErrNotFound
	}
	if banned && u.IsAdmin {
		return users.ErrBanAdmin
	}
	u.IsBanned = banned
	if banned {
		delete(s.m.tokens, id)
	}
	return nil
}

func (s memUsers) SetPassword(_ context.Context, u *users.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	stored, ok := s.m.users[u.ID]
	if !ok {
		return users.ErrNotFound
	}
	stored.Password = u.Password
	return nil
}

func (s memUsers) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if u, ok := s.m.users[id]; ok && u.IsAdmin {
		return users.ErrEraseAdmin
	}
	return s.erase(id)
}

func (s memUsers) erase(id int64) error {
	if _, ok := s.m.users[id]; !ok {
		return users.ErrNotFound
	}
	delete(s.m.users, id)
	delete(s.m.tokens, id)

	rated := map[int64]bool{}
	for rid, r := range s.m.ratings {
		if r.UserID == id {
			rated[r.PlaceID] = true
			delete(s.m.ratings, rid)
		}
	}
	for cid, c := range s.m.comments {
		if c.UserID == id {
			delete(s.m.comments, cid)
		}
	}
	for placeID := range rated {
		s.m.recompute(placeID)
	}
	return nil
}

func (s memUsers) RemoveAdmin(_ context.Context, actorID, id int64, how users.Removal) error {
	if actorID == id {
		return users.ErrSelfRemoval
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	target, ok := s.m.users[id]
	if !ok {
		return users.ErrNotFound
	}
	if err := users.CheckAdminRemoval(actorID, target, s.admins()); err != nil {
		return err
	}
	if how == users.Erase {
		return s.erase(id)
	}
	target.IsAdmin = false
	return nil
}

func (s memUsers) admins() int {
	n := 0
	for _, u := range s.m.users {
		if u.IsAdmin {
			n++
		}
	}
	return n
}

func (s memUsers) CountAdmins(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.admins(), nil
}

func (s memUsers) members(admin bool) []users.Member {
	out := []users.Member{}
	for _, u := range s.m.users {
		if u.IsAdmin == admin {
			out = append(out, users.Member{User: *u})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s memUsers) ListNonAdmins(_ context.Context, p params.Pagination) ([]users.Member, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	all := s.members(false)
	return page(all, p), len(all), nil
}

func (s memUsers) ListAdmins(context.Context) ([]users.Member, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.members(true), nil
}

func (s memUsers) Recent(_ context.Context, n int) ([]users.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	out := []users.User{}
	for _, u := range s.m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s memUsers) Count(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return len(s.m.users), nil
}

func (s memUsers) SaveRefreshToken(_ context.Context, id int64, token string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.tokens[id] = token
	return nil
}

func (s memUsers) GetRefreshToken(_ context.Context, id int64) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.users[id]; !ok {
		return "", users.ErrNotFound
	}
	return s.m.tokens[id], nil
}

func (s memUsers) DeleteRefreshToken(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	delete(s.m.tokens, id)
	return nil
}

type memPlaces struct{ m *memDB }

func (s memPlaces) Create(_ context.Context, p *places.Place) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p.ID, p.CreatedAt = s.m.next()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.m.places[p.ID] = &cp
	return nil
}

func (s memPlaces) get(id int64) (*places.Place, bool) {
	p, ok := s.m.places[id]
	if !ok {
		return nil, false
	}
	cp := *p
	for _, c := range s.m.comments {
		if c.PlaceID == id {
			cp.CommentsCount++
		}
	}
	return &cp, true
}

func (s memPlaces) GetByID(_ context.Context, id int64) (*places.Place, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p, ok := s.get(id)
	if !ok {
		return nil, places.ErrNotFound
	}
	return p, nil
}

// Search hands every place to the in-process pipeline, which filters again.
func (s memPlaces) Search(_ context.Context, _ search.Query) ([]places.Place, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	out := []places.Place{}
	for id := range s.m.places {
		p, _ := s.get(id)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memPlaces) Update(_ context.Context, p *places.Place) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	stored, ok := s.m.places[p.ID]
	if !ok {
		return places.ErrNotFound
	}
	avg := stored.Averages
	_, p.UpdatedAt = s.m.next()
	*stored = *p
	stored.Averages = avg
	// counted live by get
	stored.CommentsCount = 0
	return nil
}

func (s memPlaces) Delete(_ context.Context, id int64) (*places.DeleteResult, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.places[id]; !ok {
		return nil, places.ErrNotFound
	}

	res := &places.DeleteResult{}
	for rid, r := range s.m.ratings {
		if r.PlaceID == id {
			res.DeletedRatings++
			delete(s.m.ratings, rid)
		}
	}
	for cid, c := range s.m.comments {
		if c.PlaceID == id {
			res.DeletedComments++
			delete(s.m.comments, cid)
		}
	}
	delete(s.m.places, id)
	return res, nil
}

func (s memPlaces) ListAdmin(_ context.Context, text string, p params.Pagination) ([]places.Place, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	text = strings.ToLower(text)
	out := []places.Place{}
	for id, pl := range s.m.places {
		hay := strings.ToLower(pl.Name + " " + pl.Address + " " + pl.City)
		if text == "" || strings.Contains(hay, text) {
			cp, _ := s.get(id)
			out = append(out, *cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, p), len(out), nil
}

func (s memPlaces) Recent(_ context.Context, n int) ([]places.Place, error) {
	out, _, err := s.ListAdmin(context.Background(), "", params.Pagination{Limit: n})
	return out, err
}

func (s memPlaces) Count(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return len(s.m.places), nil
}

type memRatings struct{ m *memDB }

func (s memRatings) Upsert(_ context.Context, r *ratings.Rating) (*ratings.WriteResult, error) {
	if err := r.Scores.Validate(); err != nil {
		return nil, err
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.places[r.PlaceID]; !ok {
		return nil, ratings.ErrPlaceNotFound
	}

	for _, existing := range s.m.ratings {
		if existing.PlaceID == r.PlaceID && existing.UserID == r.UserID {
			existing.Scores = r.Scores
			_, existing.UpdatedAt = s.m.next()
			cp := *existing
			return &ratings.WriteResult{Rating: &cp, Averages: s.m.recompute(r.PlaceID)}, nil
		}
	}

	r.ID, r.CreatedAt = s.m.next()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.m.ratings[r.ID] = &cp
	return &ratings.WriteResult{Rating: r, Created: true, Averages: s.m.recompute(r.PlaceID)}, nil
}

func (s memRatings) DeleteByUser(_ context.Context, placeID, userID int64) (*ratings.WriteResult, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for id, r := range s.m.ratings {
		if r.PlaceID == placeID && r.UserID == userID {
			delete(s.m.ratings, id)
			return &ratings.WriteResult{Averages: s.m.recompute(placeID)}, nil
		}
	}
	return nil, ratings.ErrNotFound
}

func (s memRatings) Delete(_ context.Context, id int64) (*ratings.WriteResult, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	r, ok := s.m.ratings[id]
	if !ok {
		return nil, ratings.ErrNotFound
	}
	delete(s.m.ratings, id)
	return &ratings.WriteResult{Averages: s.m.recompute(r.PlaceID)}, nil
}

func (s memRatings) sorted(keep func(*ratings.Rating) bool) []ratings.Rating {
	out := []ratings.Rating{}
	for _, r := range s.m.ratings {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s memRatings) ListByPlace(_ context.Context, placeID int64) ([]ratings.Rating, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return s.sorted(func(r *ratings.Rating) bool { return r.PlaceID == placeID }), nil
}

func (s memRatings) ListAll(_ context.Context, p params.Pagination) ([]ratings.Rating, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	all := s.sorted(func(*ratings.Rating) bool { return true })
	return page(all, p), len(all), nil
}

func (s memRatings) Recent(ctx context.Context, n int) ([]ratings.Rating, error) {
	out, _, err := s.ListAll(ctx, params.Pagination{Limit: n})
	return out, err
}

func (s memRatings) Count(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return len(s.m.ratings), nil
}

func (s memRatings) Reconcile(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	fixed := 0
	for id, p := range s.m.places {
		before := p.Averages
		if s.m.recompute(id) != before {
			fixed++
		}
	}
	return fixed, nil
}

type memComments struct{ m *memDB }

func (s memComments) Create(_ context.Context, c *comments.Comment) error {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return comments.ErrEmptyContent
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.places[c.PlaceID]; !ok {
		return comments.ErrPlaceNotFound
	}
	if c.ParentID != nil {
		parent, ok := s.m.comments[*c.ParentID]
		if !ok {
			return comments.ErrParentNotFound
		}
		if parent.PlaceID != c.PlaceID {
			return comments.ErrInvalidParent
		}
	}

	c.ID, c.CreatedAt = s.m.next()
	c.UpdatedAt = c.CreatedAt
	if u, ok := s.m.users[c.UserID]; ok {
		c.UserName, c.UserEmail = u.Name, u.Email
	}
	cp := *c
	s.m.comments[c.ID] = &cp
	return nil
}

func (s memComments) GetByID(_ context.Context, id int64) (*comments.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	c, ok := s.m.comments[id]
	if !ok {
		return nil, comments.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s memComments) flat(keep func(*comments.Comment) bool) []comments.Comment {
	out := []comments.Comment{}
	for _, c := range s.m.comments {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s memComments) ListByPlace(_ context.Context, placeID int64) ([]*comments.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return comments.BuildTree(s.flat(func(c *comments.Comment) bool { return c.PlaceID == placeID })), nil
}

func (s memComments) ListAdmin(_ context.Context, p params.Pagination) ([]comments.Comment, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	all := s.flat(func(*comments.Comment) bool { return true })
	return page(all, p), len(all), nil
}

func (s memComments) Recent(ctx context.Context, n int) ([]comments.Comment, error) {
	out, _, err := s.ListAdmin(ctx, params.Pagination{Limit: n})
	return out, err
}

func (s memComments) Delete(_ context.Context, id int64) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.comments[id]; !ok {
		return 0, comments.ErrNotFound
	}

	thread := []int64{id}
	for i := 0; i < len(thread); i++ {
		for cid, c := range s.m.comments {
			if c.ParentID != nil && *c.ParentID == thread[i] {
				thread = append(thread, cid)
			}
		}
	}
	for _, cid := range thread {
		delete(s.m.comments, cid)
	}
	return len(thread), nil
}

func (s memComments) Count(context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	return len(s.m.comments), nil
}

type memDashboard struct{ m *memDB }

func (s memDashboard) GetOverview(context.Context) (*admindashboard.Overview, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	out := &admindashboard.Overview{
		TotalPlaces:   int64(len(s.m.places)),
		TotalRatings:  int64(len(s.m.ratings)),
		TotalComments: int64(len(s.m.comments)),
	}

	var feed []admindashboard.Activity
	for _, u := range s.m.users {
		out.TotalUsers++
		if u.IsAdmin {
			out.TotalAdmins++
		}
		if u.IsBanned {
			out.TotalBanned++
		}
		feed = append(feed, admindashboard.Activity{
			ID: u.ID, Type: admindashboard.ActivityUser, Description: u.Name, Timestamp: u.CreatedAt,
		})
	}
	out.RecentActivity = admindashboard.MergeActivity(feed)
	return out, nil
}

// memUploads records saved images instead of writing them.
type memUploads struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (s *memUploads) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[name] = data
	return "/uploads/" + name, nil
}
