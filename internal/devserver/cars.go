package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bechamine/autocare/internal/models"
)

// ListOwnerCars 当前用户的车辆列表
// POST /cars/owner
func (s *Server) ListOwnerCars(c *gin.Context) {
	userID := c.GetString("userID")
	c.JSON(http.StatusOK, s.store.carsByOwner(userID))
}

// UploadCarImage 上传车辆照片并创建车辆记录
// POST /cars/upload-image
// 线上后端会做图像识别，这里固定返回一台占位车辆
func (s *Server) UploadCarImage(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "image part is required"})
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil || size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "image is empty"})
		return
	}

	car := models.Vehicle{
		ID:       uuid.NewString(),
		Make:     "Unknown",
		CarModel: "Detected Model",
		Year:     2020,
		Mileage:  0,
		Owner:    c.GetString("userID"),
		ImageURL: "/images/" + uuid.NewString() + ".jpg",
	}
	s.store.putCar(car)

	s.logger.Info("Car created from image",
		zap.String("car_id", car.ID), zap.Int64("image_bytes", size))

	c.JSON(http.StatusCreated, gin.H{"car": car})
}

// UpdateCar 更新车辆资料
// PATCH /cars/:id
// 请求体可以是 JSON，也可以是 multipart（data 部分为 JSON 车辆 + image 部分）
func (s *Server) UpdateCar(c *gin.Context) {
	id := c.Param("id")

	existing, ok := s.store.getCar(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "car not found"})
		return
	}
	if existing.Owner != c.GetString("userID") {
		c.JSON(http.StatusForbidden, gin.H{"message": "not your car"})
		return
	}

	var payload []byte
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		payload = []byte(c.PostForm("data"))
		if file, _, err := c.Request.FormFile("image"); err == nil {
			file.Close()
			existing.ImageURL = "/images/" + uuid.NewString() + ".jpg"
		}
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		payload = body
	}

	if len(payload) > 0 {
		var patch struct {
			Make     *string `json:"make"`
			CarModel *string `json:"carModel"`
			Year     *int    `json:"year"`
			Mileage  *int    `json:"mileage"`
			Engine   *string `json:"engine"`
		}
		if err := json.Unmarshal(payload, &patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid car payload"})
			return
		}
		if patch.Make != nil {
			existing.Make = *patch.Make
		}
		if patch.CarModel != nil {
			existing.CarModel = *patch.CarModel
		}
		if patch.Year != nil {
			existing.Year = *patch.Year
		}
		if patch.Mileage != nil {
			existing.Mileage = *patch.Mileage
		}
		if patch.Engine != nil {
			existing.Engine = *patch.Engine
		}
	}

	s.store.putCar(*existing)
	c.JSON(http.StatusOK, existing)
}
