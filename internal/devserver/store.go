package devserver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bechamine/autocare/internal/models"
)

// user 开发服务器的用户记录
type user struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// memoryStore 内存数据存储，互斥锁保护
type memoryStore struct {
	mu    sync.Mutex
	users map[string]*user                   // key = email
	cars  map[string]*models.Vehicle         // key = car id
	tasks map[string]*models.MaintenanceTask // key = task id
	otps  map[string]string                  // key = otp, value = user id
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users: make(map[string]*user),
		cars:  make(map[string]*models.Vehicle),
		tasks: make(map[string]*models.MaintenanceTask),
		otps:  make(map[string]string),
	}
}

func (m *memoryStore) getUserByEmail(email string) (*user, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, false
	}
	copied := *u
	return &copied, true
}

func (m *memoryStore) getUserByID(id string) (*user, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, true
		}
	}
	return nil, false
}

// updateUser 在锁内修改用户记录，用户不存在时返回 false
func (m *memoryStore) updateUser(id string, fn func(*user)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			fn(u)
			return true
		}
	}
	return false
}

// createUser 创建用户，email 已存在时返回 false
func (m *memoryStore) createUser(name, email, passwordHash string) (*user, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[email]; exists {
		return nil, false
	}

	u := &user{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	m.users[email] = u
	return u, true
}

func (m *memoryStore) carsByOwner(ownerID string) []models.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.Vehicle, 0)
	for _, car := range m.cars {
		if car.Owner == ownerID {
			result = append(result, *car)
		}
	}
	return result
}

func (m *memoryStore) getCar(id string) (*models.Vehicle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	car, ok := m.cars[id]
	if !ok {
		return nil, false
	}
	copied := *car
	return &copied, true
}

func (m *memoryStore) putCar(car models.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cars[car.ID] = &car
}

func (m *memoryStore) tasksByCar(carID string) []models.MaintenanceTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.MaintenanceTask, 0)
	for _, t := range m.tasks {
		if t.CarID == carID {
			result = append(result, *t)
		}
	}
	return result
}

func (m *memoryStore) getTask(id string) (*models.MaintenanceTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	copied := *t
	return &copied, true
}

func (m *memoryStore) putTask(t models.MaintenanceTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = &t
}

func (m *memoryStore) saveOTP(otp, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[otp] = userID
}

// consumeOTP 取出并删除 OTP
func (m *memoryStore) consumeOTP(otp string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.otps[otp]
	if ok {
		delete(m.otps, otp)
	}
	return userID, ok
}
