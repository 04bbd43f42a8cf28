package branches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	mdshared "github.com/helios-erp/helios-erp/internal/masterdata/shared"
	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/shared"
)

type memoryRepo struct {
	branches map[int64]Branch
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{branches: make(map[int64]Branch)}
}

func (m *memoryRepo) List(_ context.Context, _ mdshared.ListFilters) ([]Branch, int, error) {
	var out []Branch
	for _, b := range m.branches {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Branch, error) {
	b, ok := m.branches[id]
	if !ok {
		return Branch{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) Create(_ context.Context, branch Branch) (Branch, error) {
	m.nextID++
	branch.ID = m.nextID
	m.branches[branch.ID] = branch
	return branch, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, branch Branch) error {
	if _, ok := m.branches[id]; !ok {
		return shared.ErrNotFound
	}
	branch.ID = id
	m.branches[id] = branch
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.branches[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.branches, id)
	return nil
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Branch{Location: "Giza"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), Branch{Name: "Giza Branch", Location: "  "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := svc.Create(context.Background(), Branch{Name: "Giza Branch", Location: "Giza", ManagerName: "H. Samir"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestUpdateValidatesIDAndFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Branch{Name: "HQ", Location: "Cairo", IsHQ: true})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Update(context.Background(), 0, created), shared.ErrNotFound)
	require.ErrorIs(t, svc.Update(context.Background(), created.ID, Branch{Location: "Cairo"}), httpx.ErrValidation)

	created.Name = "Head Office"
	require.NoError(t, svc.Update(context.Background(), created.ID, created))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Head Office", got.Name)
}

func TestGetAndDeleteRejectBadIDs(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), -3), shared.ErrNotFound)
}
