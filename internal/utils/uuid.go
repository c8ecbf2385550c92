package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	uuidStr := uuid.New().String()
	return strings.ReplaceAll(uuidStr, "-", "")[:8]
}

func GenerateThreadID() string {
	return fmt.Sprintf("thread-%s", GenerateUUID())
}

func GenerateMessageID() string {
	return fmt.Sprintf("m-%s", GenerateUUID())
}
