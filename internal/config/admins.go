package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// AdminProvider хранит список telegram id администраторов, загруженный из
// yaml-файла. Список перечитывается только явным Reload — командой
// /reloadadmins, без фоновых таймеров.
type AdminProvider struct {
	path string

	mu sync.RWMutex
	// order хранит id в порядке файла: от него зависит разрешение ничьих
	// при выборе наименее загруженного админа
	order []int64
	ids   map[int64]struct{}
}

type adminsFile struct {
	Admins []int64 `yaml:"admins"`
}

func NewAdminProvider(path string) (*AdminProvider, error) {
	p := &AdminProvider{path: path, ids: make(map[int64]struct{})}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload перечитывает файл. При ошибке старый список остаётся в силе.
func (p *AdminProvider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read admins file: %w", err)
	}

	var f adminsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse admins file: %w", err)
	}

	ids := make(map[int64]struct{}, len(f.Admins))
	order := make([]int64, 0, len(f.Admins))
	for _, id := range f.Admins {
		if _, seen := ids[id]; seen {
			continue
		}
		ids[id] = struct{}{}
		order = append(order, id)
	}

	p.mu.Lock()
	p.ids = ids
	p.order = order
	p.mu.Unlock()
	return nil
}

func (p *AdminProvider) IsAdmin(telegramID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.ids[telegramID]
	return ok
}

// List возвращает копию списка администраторов в порядке файла.
func (p *AdminProvider) List() []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]int64, len(p.order))
	copy(out, p.order)
	return out
}

func (p *AdminProvider) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ids)
}
