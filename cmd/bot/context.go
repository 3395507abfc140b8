package main

import (
	"fmt"

	"github.com/samber/do"
	tele "gopkg.in/telebot.v3"
)

func getContextService[T any](context tele.Context) (T, error) {
	var empty T

	contextValue := context.Get(contextContainer)
	if contextValue == nil {
		return empty, fmt.Errorf("container not found")
	}

	injector, ok := contextValue.(*do.Injector)
	if !ok {
		return empty, fmt.Errorf("container not valid")
	}

	return do.Invoke[T](injector)
}

func getContextCurrency(context tele.Context) string {
	currency, ok := context.Get(contextCurrency).(string)
	if !ok || currency == "" {
		return "coins"
	}

	return currency
}
