package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// 任务状态常量（服务端原样返回，大小写不做归一化）
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusOverdue   = "Overdue"
)

// Vehicle 车辆信息
// 后端为 MongoDB，主键为 `_id`
type Vehicle struct {
	ID       string `json:"_id"`
	Make     string `json:"make"`
	CarModel string `json:"carModel"`
	Year     int    `json:"year"`
	Mileage  int    `json:"mileage"` // km
	Owner    string `json:"owner,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Engine   string `json:"engine,omitempty"`
}

// vehicleWire 解码中间结构，指针字段用于区分"缺失"和"零值"
type vehicleWire struct {
	ID       *string `json:"_id"`
	Make     *string `json:"make"`
	CarModel *string `json:"carModel"`
	Year     *int    `json:"year"`
	Mileage  *int    `json:"mileage"`
	Owner    *string `json:"owner"`
	ImageURL *string `json:"imageUrl"`
	Engine   *string `json:"engine"`
}

// UnmarshalJSON 解码车辆，必填字段缺失或类型错误时失败
func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var w vehicleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if w.ID == nil || *w.ID == "" {
		return fmt.Errorf("vehicle: missing required field _id")
	}
	if w.Make == nil {
		return fmt.Errorf("vehicle: missing required field make")
	}
	if w.CarModel == nil {
		return fmt.Errorf("vehicle: missing required field carModel")
	}
	if w.Year == nil {
		return fmt.Errorf("vehicle: missing required field year")
	}
	if w.Mileage == nil {
		return fmt.Errorf("vehicle: missing required field mileage")
	}

	v.ID = *w.ID
	v.Make = *w.Make
	v.CarModel = *w.CarModel
	v.Year = *w.Year
	v.Mileage = *w.Mileage
	if w.Owner != nil {
		v.Owner = *w.Owner
	}
	if w.ImageURL != nil {
		v.ImageURL = *w.ImageURL
	}
	if w.Engine != nil {
		v.Engine = *w.Engine
	}

	return nil
}

// MaintenanceTask 保养任务
type MaintenanceTask struct {
	ID          string `json:"_id"`
	CarID       string `json:"carId"`
	Task        string `json:"task"`
	DueDate     string `json:"dueDate,omitempty"`     // ISO-8601
	NextMileage *int   `json:"nextMileage,omitempty"` // km
	Status      string `json:"status"`
}

// taskWire 解码中间结构
type taskWire struct {
	ID          *string `json:"_id"`
	CarID       *string `json:"carId"`
	Task        *string `json:"task"`
	DueDate     *string `json:"dueDate"`
	NextMileage *int    `json:"nextMileage"`
	Status      *string `json:"status"`
}

// UnmarshalJSON 解码保养任务
// 后端偶尔会返回缺失或为空的 `_id`，此时生成本地唯一的占位 id
// 而不是让整批数据解码失败（沿用移动端的容错策略）
func (t *MaintenanceTask) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if w.CarID == nil {
		return fmt.Errorf("task: missing required field carId")
	}
	if w.Task == nil {
		return fmt.Errorf("task: missing required field task")
	}
	if w.Status == nil {
		return fmt.Errorf("task: missing required field status")
	}

	if w.ID != nil && *w.ID != "" {
		t.ID = *w.ID
	} else {
		t.ID = uuid.NewString()
	}
	t.CarID = *w.CarID
	t.Task = *w.Task
	if w.DueDate != nil {
		t.DueDate = *w.DueDate
	}
	t.NextMileage = w.NextMileage
	t.Status = *w.Status

	return nil
}

// IsOverdue 判断任务是否逾期，兼容服务端返回的 "OVERDUE" 大写形式
func (t *MaintenanceTask) IsOverdue() bool {
	return strings.EqualFold(t.Status, StatusOverdue)
}

// DedupeTasks 按 id 去重，保留首次出现的顺序
func DedupeTasks(tasks []MaintenanceTask) []MaintenanceTask {
	seen := make(map[string]struct{}, len(tasks))
	result := make([]MaintenanceTask, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		result = append(result, t)
	}
	return result
}

// User 用户信息
type User struct {
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Cars  []Vehicle `json:"cars"`
}

// AuthResult 登录/社交登录返回结果
// 令牌字段为 snake_case，与后端其余 camelCase 接口不一致，按线上格式原样保留
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Message 通用消息响应
type Message struct {
	Message string `json:"message"`
}
