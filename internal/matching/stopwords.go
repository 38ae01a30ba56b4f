package matching

// stopwordList is a closed set of common English function words excluded from
// token sets. Extending it changes every score, so treat additions as a
// breaking change to stored match history.
var stopwordList = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "did", "do",
	"does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"him", "his", "how", "i", "if", "in", "into", "is", "it", "its", "just",
	"me", "more", "most", "my", "no", "nor", "not", "now", "of", "off", "on",
	"once", "only", "or", "other", "our", "out", "over", "own", "same",
	"she", "should", "so", "some", "such", "than", "that", "the", "their",
	"them", "then", "there", "these", "they", "this", "those", "through",
	"to", "too", "under", "until", "up", "very", "was", "we", "were",
	"what", "when", "where", "which", "while", "who", "whom", "why", "will",
	"with", "you", "your",
}

var stopwords = func() map[string]struct{} {
	set := make(map[string]struct{}, len(stopwordList))
	for _, word := range stopwordList {
		set[word] = struct{}{}
	}
	return set
}()
