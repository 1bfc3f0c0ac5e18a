package expand

// PersianAlphabet is the script-specific alphabet used by the FA strategies.
var PersianAlphabet = []string{
	"ا", "آ", "ب", "پ", "ت", "ث", "ج", "چ", "ح", "خ", "د", "ذ", "ر", "ز", "ژ", "س",
	"ش", "ص", "ض", "ط", "ظ", "ع", "غ", "ف", "ق", "ک", "گ", "ل", "م", "ن", "و", "ه", "ی",
}

// EnglishAlphabet is the generic 26-letter alphabet.
var EnglishAlphabet = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
	"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
}

// QuestionPrefixes are the interrogative and comparative templates.
var QuestionPrefixes = []string{"how to", "what is", "best", "vs", "review"}
