package services

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"realworld/internal/storage"
)

func init() { passwordCost = bcrypt.MinCost }

// memStore 是仓储接口的内存实现，语义与 storage 包中的 GORM 实现保持一致。
type memStore struct {
	mu        sync.Mutex
	nextID    uint64
	users     map[uint64]storage.User
	tags      []storage.Tag
	articles  map[uint64]storage.Article
	comments  map[uint64]storage.Comment
	follows   map[[2]uint64]bool
	favorites map[[2]uint64]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uint64]storage.User{},
		articles:  map[uint64]storage.Article{},
		comments:  map[uint64]storage.Comment{},
		follows:   map[[2]uint64]bool{},
		favorites: map[[2]uint64]bool{},
	}
}

func (m *memStore) id() uint64 { m.nextID++; return m.nextID }

func (m *memStore) publicUser(id uint64) storage.User {
	u := m.users[id]
	u.Password = ""
	return u
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *storage.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Username == u.Username || x.Email == u.Email {
			return storage.ErrDuplicate
		}
	}
	u.ID = r.id()
	r.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uint64) (*storage.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return nil, storage.ErrNotFound
	}
	u := r.publicUser(id)
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string, withPassword bool) (*storage.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email {
			if !withPassword {
				u = r.publicUser(id)
			}
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*storage.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Username == username {
			u = r.publicUser(id)
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r memUsers) Update(_ context.Context, id uint64, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	for k, v := range fields {
		s := v.(string)
		switch k {
		case "username":
			u.Username = s
		case "email":
			u.Email = s
		case "password":
			u.Password = s
		case "bio":
			u.Bio = s
		case "image":
			u.Image = s
		}
	}
	for oid, x := range r.users {
		if oid != id && (x.Username == u.Username || x.Email == u.Email) {
			return storage.ErrDuplicate
		}
	}
	r.users[id] = u
	return nil
}

type memFollows struct{ *memStore }

func (r memFollows) Add(_ context.Context, a, b uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows[[2]uint64{a, b}] = true
	return nil
}

func (r memFollows) Remove(_ context.Context, a, b uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.follows, [2]uint64{a, b})
	return nil
}

func (r memFollows) Exists(_ context.Context, a, b uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.follows[[2]uint64{a, b}], nil
}

func (r memFollows) FollowingIDs(_ context.Context, a uint64) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint64
	for k := range r.follows {
		if k[0] == a {
			ids = append(ids, k[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memFollows) FollowingAmong(_ context.Context, a uint64, candidates []uint64) (map[uint64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uint64]bool{}
	for _, c := range candidates {
		if r.follows[[2]uint64{a, c}] {
			out[c] = true
		}
	}
	return out, nil
}

type memFavorites struct{ *memStore }

func (r memFavorites) Add(_ context.Context, u, a uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.favorites[[2]uint64{u, a}] = true
	return nil
}

func (r memFavorites) Remove(_ context.Context, u, a uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.favorites, [2]uint64{u, a})
	return nil
}

func (r memFavorites) CountByArticles(_ context.Context, ids []uint64) (map[uint64]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[uint64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[uint64]int64{}
	for k := range r.favorites {
		if want[k[1]] {
			out[k[1]]++
		}
	}
	return out, nil
}

func (r memFavorites) FavoritedAmong(_ context.Context, u uint64, ids []uint64) (map[uint64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uint64]bool{}
	for _, id := range ids {
		if r.favorites[[2]uint64{u, id}] {
			out[id] = true
		}
	}
	return out, nil
}

type memTags struct{ *memStore }

func (r memTags) List(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := []string{}
	for _, t := range r.tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r memTags) FindOrCreate(_ context.Context, names []string) ([]storage.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.Tag
	seen := map[string]bool{}
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		found := false
		for _, t := range r.tags {
			if t.Name == n {
				out = append(out, t)
				found = true
				break
			}
		}
		if !found {
			t := storage.Tag{ID: r.id(), Name: n}
			r.tags = append(r.tags, t)
			out = append(out, t)
		}
	}
	return out, nil
}

type memArticles struct{ *memStore }

func (r memArticles) withAuthor(a storage.Article) storage.Article {
	a.Author = r.publicUser(a.AuthorID)
	a.Tags = append([]storage.Tag(nil), a.Tags...)
	return a
}

func (r memArticles) Create(_ context.Context, a *storage.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.articles {
		if x.Slug == a.Slug {
			return storage.ErrDuplicate
		}
	}
	a.ID = r.id()
	stored := *a
	stored.Author = storage.User{}
	r.articles[a.ID] = stored
	return nil
}

func (r memArticles) FindBySlug(_ context.Context, slug string) (*storage.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.Slug == slug {
			out := r.withAuthor(a)
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r memArticles) Update(_ context.Context, a *storage.Article, tags []storage.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, x := range r.articles {
		if id != a.ID && x.Slug == a.Slug {
			return storage.ErrDuplicate
		}
	}
	stored := *a
	stored.Author = storage.User{}
	if tags != nil {
		stored.Tags = tags
		a.Tags = tags
	}
	r.articles[a.ID] = stored
	return nil
}

func (r memArticles) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.articles, id)
	for cid, c := range r.comments {
		if c.ArticleID == id {
			delete(r.comments, cid)
		}
	}
	for k := range r.favorites {
		if k[1] == id {
			delete(r.favorites, k)
		}
	}
	return nil
}

func (r memArticles) List(_ context.Context, q storage.ArticleQuery) ([]storage.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []storage.Article
	for _, a := range r.articles {
		if q.Tag != "" && !hasTag(a, q.Tag) {
			continue
		}
		if q.AuthorIDs != nil && !containsID(q.AuthorIDs, a.AuthorID) {
			continue
		}
		if q.FavoritedBy != 0 && !r.favorites[[2]uint64{q.FavoritedBy, a.ID}] {
			continue
		}
		all = append(all, r.withAuthor(a))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := int64(len(all))
	if q.Offset >= len(all) {
		return []storage.Article{}, total, nil
	}
	all = all[q.Offset:]
	if q.Limit > 0 && q.Limit < len(all) {
		all = all[:q.Limit]
	}
	return all, total, nil
}

func hasTag(a storage.Article, name string) bool {
	for _, t := range a.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

func containsID(ids []uint64, id uint64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type memComments struct{ *memStore }

func (r memComments) Create(_ context.Context, c *storage.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	stored := *c
	stored.Author = storage.User{}
	r.comments[c.ID] = stored
	return nil
}

func (r memComments) FindByID(_ context.Context, id uint64) (*storage.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c.Author = r.publicUser(c.AuthorID)
	return &c, nil
}

func (r memComments) ListByArticle(_ context.Context, articleID uint64) ([]storage.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []storage.Comment{}
	for _, c := range r.comments {
		if c.ArticleID == articleID {
			c.Author = r.publicUser(c.AuthorID)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r memComments) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

type testEnv struct {
	store    *memStore
	users    *UserService
	profiles *ProfileService
	tags     *TagService
	articles *ArticleService
	comments *CommentService
}

func newTestEnv() *testEnv {
	m := newMemStore()
	users, follows, favorites := memUsers{m}, memFollows{m}, memFavorites{m}
	tags, articles, comments := memTags{m}, memArticles{m}, memComments{m}
	return &testEnv{
		store:    m,
		users:    NewUserService(users, follows),
		profiles: NewProfileService(users, follows),
		tags:     NewTagService(tags),
		articles: NewArticleService(articles, users, tags, favorites, follows),
		comments: NewCommentService(comments, articles, users, follows),
	}
}
