// Package devserver 提供 AutoCare 后端的内存版实现
// 用于本地开发和端到端测试，接口和线上后端保持一致
package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Server 开发用 API 服务器
type Server struct {
	logger     *zap.Logger
	store      *memoryStore
	jwtSecret  []byte
	bcryptCost int
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Options 服务器配置
type Options struct {
	JWTSecret  string
	BcryptCost int
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewServer 创建开发服务器
func NewServer(logger *zap.Logger, opts Options) *Server {
	if opts.AccessTTL == 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 10
	}

	return &Server{
		logger:     logger,
		store:      newMemoryStore(),
		jwtSecret:  []byte(opts.JWTSecret),
		bcryptCost: opts.BcryptCost,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
	}
}

// Router 构建路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes 注册路由
func (s *Server) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", s.SignUp)
		auth.POST("/login", s.Login)
		auth.POST("/google/token", s.GoogleToken)
		auth.POST("/google-signup", s.GoogleSignUp)
		auth.POST("/refresh", s.Refresh)
		auth.POST("/forgot-password", s.ForgotPassword)
		auth.PUT("/verify-otp", s.VerifyOTP)
		auth.POST("/reset-password", s.requireAuth, s.ResetPassword)
		auth.PUT("/profile", s.requireAuth, s.UpdateProfile)
	}

	users := r.Group("/users", s.requireAuth)
	{
		users.PUT("/change-password", s.ChangePassword)
	}

	cars := r.Group("/cars", s.requireAuth)
	{
		cars.POST("/owner", s.ListOwnerCars)
		cars.POST("/upload-image", s.UploadCarImage)
		cars.PATCH("/:id", s.UpdateCar)
	}

	maintenance := r.Group("/maintenance", s.requireAuth)
	{
		maintenance.GET("/:carId/predict", s.PredictTasks)
		maintenance.POST("/:carId/task", s.AddTask)
		maintenance.PUT("/task/:id/complete", s.CompleteTask)
		maintenance.PATCH("/:id", s.UpdateTaskMileage)
	}
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAuth Bearer 认证中间件
// access token 缺失、签名无效或过期都返回 401，驱动客户端走刷新流程
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}

	claims, err := s.parseToken(strings.TrimPrefix(header, "Bearer "), "access")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
		return
	}

	id, _ := claims["id"].(string)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token claims"})
		return
	}

	c.Set("userID", id)
	c.Next()
}

// mintToken 签发 HS256 JWT
func (s *Server) mintToken(userID, email, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   userID,
		"type": kind,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// parseToken 校验并解析 JWT
func (s *Server) parseToken(tokenString, kind string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if kindClaim, _ := claims["type"].(string); kindClaim != kind {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
