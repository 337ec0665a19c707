package service

import "errors"

// 业务错误全部用哨兵错误返回给调用方，handler 层据此映射状态码
var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrGroupNotFound        = errors.New("group not found")
	ErrAlreadyMember        = errors.New("already a member of this group")
	ErrNotMember            = errors.New("not a member of this group")
)
