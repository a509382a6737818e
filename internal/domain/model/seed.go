package model

// DefaultCharacters é o conjunto fixo inserido quando a tabela está vazia
func DefaultCharacters() []Character {
	return []Character{
		{Name: "Luke Skywalker", Faction: "Rebel Alliance", Homeworld: "Tatooine", Species: "Human"},
		{Name: "Darth Vader", Faction: "Galactic Empire", Homeworld: "Tatooine", Species: "Human"},
		{Name: "Leia Organa", Faction: "Rebel Alliance", Homeworld: "Alderaan", Species: "Human"},
		{Name: "Obi-Wan Kenobi", Faction: "Jedi Order", Homeworld: "Stewjon", Species: "Human"},
		{Name: "Yoda", Faction: "Jedi Order", Homeworld: "Dagobah", Species: "Yoda's species"},
		{Name: "R2-D2", Faction: "Rebel Alliance", Homeworld: "Naboo", Species: "Astromech droid"},
		{Name: "C-3PO", Faction: "Rebel Alliance", Homeworld: "Tatooine", Species: "Protocol droid"},
		{Name: "Chewbacca", Faction: "Rebel Alliance", Homeworld: "Kashyyyk", Species: "Wookie"},
		{Name: "Han Solo", Faction: "Rebel Alliance", Homeworld: "Corellia", Species: "Human"},
		{Name: "Boba Fett", Faction: "Galactic Empire", Homeworld: "Kamino", Species: "Human"},
		{Name: "Darth Maul", Faction: "Sith", Homeworld: "Dathomir", Species: "Zabrak"},
		{Name: "Emperor Palpatine", Faction: "Galactic Empire", Homeworld: "Naboo", Species: "Human"},
		{Name: "Jabba the Hutt", Faction: "Hutt Clan", Homeworld: "Nal Hutta", Species: "Hutt"},
		{Name: "Lando Calrissian", Faction: "Rebel Alliance", Homeworld: "Socorro", Species: "Human"},
		{Name: "Padmé Amidala", Faction: "Galactic Republic", Homeworld: "Naboo", Species: "Human"},
		{Name: "Qui-Gon Jinn", Faction: "Jedi Order", Homeworld: "Coruscant", Species: "Human"},
		{Name: "Mace Windu", Faction: "Jedi Order", Homeworld: "Haruun Kal", Species: "Human"},
		{Name: "Count Dooku", Faction: "Sith", Homeworld: "Serenno", Species: "Human"},
		{Name: "General Grievous", Faction: "Separatists", Homeworld: "Kalee", Species: "Kaleesh"},
		{Name: "Ahsoka Tano", Faction: "Jedi Order", Homeworld: "Shili", Species: "Togruta"},
	}
}
