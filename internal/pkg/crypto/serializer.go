package crypto

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm/schema"
)

// SecretSerializer 字段落库前加密, 读出后解密; 空串原样存储
// 用法: `gorm:"serializer:secret"`, 字段类型必须为 string
type SecretSerializer struct{}

func init() {
	schema.RegisterSerializer("secret", SecretSerializer{})
}

func (SecretSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	var stored string
	switch v := dbValue.(type) {
	case nil:
	case []byte:
		stored = string(v)
	case string:
		stored = v
	default:
		return fmt.Errorf("字段 %s 无法解密: 不支持的类型 %T", field.Name, dbValue)
	}

	plain := ""
	if stored != "" {
		var err error
		if plain, err = Decrypt(stored); err != nil {
			return fmt.Errorf("字段 %s 解密失败: %w", field.Name, err)
		}
	}
	field.ReflectValueOf(ctx, dst).SetString(plain)
	return nil
}

func (SecretSerializer) Value(_ context.Context, field *schema.Field, _ reflect.Value, fieldValue interface{}) (interface{}, error) {
	plain, ok := fieldValue.(string)
	if !ok {
		return nil, fmt.Errorf("字段 %s 必须为 string 类型", field.Name)
	}
	if plain == "" {
		return "", nil
	}
	encrypted, err := Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("字段 %s 加密失败: %w", field.Name, err)
	}
	return encrypted, nil
}
