package telegram

import "fmt"

// Texts holds the user-facing replies.
type Texts struct {
	// Greeting answers /start.
	Greeting string
	// Processing acknowledges a received video while it is converted.
	Processing string
	// Failure is sent when any step of the conversion fails.
	Failure string
}

// DefaultTexts returns the Russian replies the bot ships with. The greeting
// names the cut length in seconds.
func DefaultTexts(maxDurationSec int) Texts {
	return Texts{
		Greeting: "Привет! 👋\n\n" +
			"Отправь мне любое видео, и я превращу его в видео-кружок (video note).\n\n" +
			fmt.Sprintf("Я обрежу его до %d секунд и сделаю квадратным без искажений.", maxDurationSec),
		Processing: "Начинаю обработку видео... ⏳",
		Failure:    "Произошла ошибка при обработке видео. 😔 Попробуйте другое видео.",
	}
}
