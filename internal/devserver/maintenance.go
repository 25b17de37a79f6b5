package devserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bechamine/autocare/internal/models"
)

// 预测任务模板，按当前里程推算下次保养里程
var predictionTemplates = []struct {
	Task     string
	Interval int // km
}{
	{"Oil Change", 10000},
	{"Tire Rotation", 15000},
	{"Brake Change", 50000},
}

// PredictTasks 车辆的保养任务列表（含预测）
// GET /maintenance/:carId/predict
// 首次访问时按模板为车辆生成一组预测任务
func (s *Server) PredictTasks(c *gin.Context) {
	carID := c.Param("carId")

	car, ok := s.store.getCar(carID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "car not found"})
		return
	}
	if car.Owner != c.GetString("userID") {
		c.JSON(http.StatusForbidden, gin.H{"message": "not your car"})
		return
	}

	tasks := s.store.tasksByCar(carID)
	if len(tasks) == 0 {
		for _, tpl := range predictionTemplates {
			next := car.Mileage + tpl.Interval
			t := models.MaintenanceTask{
				ID:          uuid.NewString(),
				CarID:       carID,
				Task:        tpl.Task,
				NextMileage: &next,
				Status:      models.StatusPending,
			}
			s.store.putTask(t)
			tasks = append(tasks, t)
		}
	}

	c.JSON(http.StatusOK, tasks)
}

// AddTask 新增保养任务
// POST /maintenance/:carId/task
func (s *Server) AddTask(c *gin.Context) {
	carID := c.Param("carId")

	var req struct {
		Task        string `json:"task"`
		DueDate     string `json:"dueDate"`
		NextMileage *int   `json:"nextMileage"`
		Status      string `json:"status"`
	}
	if err := c.BindJSON(&req); err != nil || req.Task == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "task is required"})
		return
	}

	if _, ok := s.store.getCar(carID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "car not found"})
		return
	}

	if req.Status == "" {
		req.Status = models.StatusPending
	}

	t := models.MaintenanceTask{
		ID:          uuid.NewString(),
		CarID:       carID,
		Task:        req.Task,
		DueDate:     req.DueDate,
		NextMileage: req.NextMileage,
		Status:      req.Status,
	}
	s.store.putTask(t)

	c.JSON(http.StatusCreated, t)
}

// CompleteTask 标记任务完成
// PUT /maintenance/task/:id/complete
func (s *Server) CompleteTask(c *gin.Context) {
	t, ok := s.store.getTask(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
		return
	}

	t.Status = models.StatusCompleted
	t.DueDate = time.Now().UTC().Format(time.RFC3339)
	s.store.putTask(*t)

	c.JSON(http.StatusOK, t)
}

// UpdateTaskMileage 更新任务里程
// PATCH /maintenance/:id
func (s *Server) UpdateTaskMileage(c *gin.Context) {
	var req struct {
		CarID      string `json:"carId"`
		NewMileage int    `json:"newMileage"`
		Status     string `json:"status"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	t, ok := s.store.getTask(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
		return
	}
	if req.CarID != "" && t.CarID != req.CarID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "carId does not match task"})
		return
	}

	next := req.NewMileage
	t.NextMileage = &next
	t.DueDate = ""
	if req.Status != "" {
		t.Status = req.Status
	}
	s.store.putTask(*t)

	c.JSON(http.StatusOK, gin.H{"message": "task updated"})
}
