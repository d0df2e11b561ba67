package auth

const EnvDev = "dev"

// TryBypass возвращает подставную личность для локальной разработки.
// Проверка окружения выполняется здесь, а не на стороне вызывающего: вне
// dev функция возвращает nil независимо от DEV_USERNAME.
func TryBypass(env, devUsername string) *TelegramUser {
	if env != EnvDev || devUsername == "" {
		return nil
	}
	return &TelegramUser{
		Username:  devUsername,
		FirstName: devUsername,
	}
}
