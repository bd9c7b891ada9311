package dto

type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required,min=1"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}
