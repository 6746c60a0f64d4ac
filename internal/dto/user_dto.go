package dto

// UserSearchQuery 用户搜索请求
type UserSearchQuery struct {
	PageQuery
}

// UserSimpleResponse 用户精简信息
type UserSimpleResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// CreateUserRequest 创建本地用户
type CreateUserRequest struct {
	Username    string   `json:"username" binding:"required,max=50"`
	Password    string   `json:"password" binding:"required,min=8,max=72"`
	Email       *string  `json:"email" binding:"omitempty,email"`
	DisplayName *string  `json:"display_name" binding:"omitempty,max=100"`
	Roles       []string `json:"roles" binding:"omitempty,dive,oneof=system_admin system_viewer member"`
}
